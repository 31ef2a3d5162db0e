package retrieval

import (
	"sort"

	"github.com/hrygo/mailsense/plugin/milvus"
)

// RankedEmail is one aggregated ranking entry.
type RankedEmail struct {
	EmailID int64
	Score   float32
}

// Rank groups hits by owning email and sums their scores, so an email
// with several matching sentences outranks one with a single stronger
// match. Results are sorted by total score descending, ties broken by
// ascending email id, and truncated to topN. Deterministic for a given
// input.
func Rank(hits []milvus.Hit, topN int) []RankedEmail {
	if topN <= 0 {
		return []RankedEmail{}
	}

	totals := make(map[int64]float32)
	for _, hit := range hits {
		totals[hit.EmailID] += hit.Score
	}

	ranked := make([]RankedEmail, 0, len(totals))
	for emailID, score := range totals {
		ranked = append(ranked, RankedEmail{EmailID: emailID, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].EmailID < ranked[j].EmailID
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
