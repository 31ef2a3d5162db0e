package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	s, err := NewSegmenter()
	require.NoError(t, err)
	return s
}

func TestSentences(t *testing.T) {
	s := newTestSegmenter(t)

	t.Run("splits paragraph into sentences", func(t *testing.T) {
		got := s.Sentences("<p>What is your refund policy? We refund within 30 days.</p>")
		assert.Equal(t, []string{
			"What is your refund policy?",
			"We refund within 30 days.",
		}, got)
	})

	t.Run("strips markup and joins text nodes", func(t *testing.T) {
		got := s.Sentences("<div><b>Hello</b> <i>world</i>. Second sentence here.</div>")
		require.Len(t, got, 2)
		assert.Equal(t, "Hello world.", got[0])
	})

	t.Run("handles abbreviations and decimals", func(t *testing.T) {
		got := s.Sentences("<p>Contact Dr. Smith before 5 p.m. on Friday. The fee is 3.50 dollars.</p>")
		assert.Len(t, got, 2)
	})

	t.Run("skips script and style content", func(t *testing.T) {
		got := s.Sentences("<html><head><style>p{color:red}</style></head><body><script>var x=1;</script><p>Visible text only.</p></body></html>")
		assert.Equal(t, []string{"Visible text only."}, got)
	})

	t.Run("collapses whitespace runs", func(t *testing.T) {
		got := s.Sentences("<p>Too   much\n\t whitespace   here.</p>")
		assert.Equal(t, []string{"Too much whitespace here."}, got)
	})

	t.Run("bare newlines and tabs keep word boundaries", func(t *testing.T) {
		got := s.Sentences("<p>Hello\nworld. Plain\ttab separated.</p>")
		assert.Equal(t, []string{
			"Hello world.",
			"Plain tab separated.",
		}, got)
	})

	t.Run("drops non-ascii characters", func(t *testing.T) {
		got := s.Sentences("<p>Café résumé test.</p>")
		assert.Equal(t, []string{"Caf rsum test."}, got)
	})

	t.Run("empty markup yields no sentences", func(t *testing.T) {
		assert.Empty(t, s.Sentences(""))
	})

	t.Run("whitespace-only markup yields no sentences", func(t *testing.T) {
		assert.Empty(t, s.Sentences("   \n\t  "))
	})

	t.Run("markup with no text yields no sentences", func(t *testing.T) {
		assert.Empty(t, s.Sentences("<div><br/><hr/></div>"))
	})

	t.Run("malformed markup degrades gracefully", func(t *testing.T) {
		got := s.Sentences("<p>Unclosed tag with <b>bold text. More text follows.")
		assert.NotEmpty(t, got)
	})

	t.Run("plain text passes through", func(t *testing.T) {
		got := s.Sentences("Just plain text. Two sentences.")
		assert.Len(t, got, 2)
	})
}
