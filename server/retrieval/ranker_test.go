package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/mailsense/plugin/milvus"
)

func TestRank(t *testing.T) {
	t.Run("sums scores per email", func(t *testing.T) {
		// Two weak sentence matches on email 1 outrank one stronger
		// match on email 2.
		hits := []milvus.Hit{
			{EmailID: 1, Score: 0.3},
			{EmailID: 2, Score: 0.5},
			{EmailID: 1, Score: 0.3},
		}
		ranked := Rank(hits, 10)
		assert.Equal(t, []RankedEmail{
			{EmailID: 1, Score: 0.6},
			{EmailID: 2, Score: 0.5},
		}, ranked)
	})

	t.Run("sorted by aggregate score descending", func(t *testing.T) {
		hits := []milvus.Hit{
			{EmailID: 3, Score: 0.2},
			{EmailID: 1, Score: 0.9},
			{EmailID: 2, Score: 0.5},
		}
		ranked := Rank(hits, 10)
		for i := 1; i < len(ranked); i++ {
			assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
		}
	})

	t.Run("ties break by ascending email id", func(t *testing.T) {
		hits := []milvus.Hit{
			{EmailID: 7, Score: 0.4},
			{EmailID: 3, Score: 0.4},
		}
		ranked := Rank(hits, 10)
		assert.Equal(t, int64(3), ranked[0].EmailID)
		assert.Equal(t, int64(7), ranked[1].EmailID)
	})

	t.Run("truncates to topN", func(t *testing.T) {
		hits := []milvus.Hit{
			{EmailID: 1, Score: 0.9},
			{EmailID: 2, Score: 0.8},
			{EmailID: 3, Score: 0.7},
		}
		ranked := Rank(hits, 2)
		assert.Len(t, ranked, 2)
		assert.Equal(t, int64(1), ranked[0].EmailID)
	})

	t.Run("zero topN returns empty", func(t *testing.T) {
		hits := []milvus.Hit{{EmailID: 1, Score: 0.9}}
		assert.Empty(t, Rank(hits, 0))
	})

	t.Run("no hits returns empty", func(t *testing.T) {
		assert.Empty(t, Rank(nil, 5))
	})

	t.Run("deterministic for the same input", func(t *testing.T) {
		hits := []milvus.Hit{
			{EmailID: 5, Score: 0.4},
			{EmailID: 2, Score: 0.4},
			{EmailID: 9, Score: 0.4},
			{EmailID: 2, Score: 0.1},
		}
		first := Rank(hits, 10)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Rank(hits, 10))
		}
	})
}
