// Package segment turns document markup into clean sentence-level text
// units, the unit actually embedded and indexed.
package segment

import (
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"golang.org/x/net/html"
)

// Segmenter splits HTML markup into normalized sentences.
// Safe for concurrent use.
type Segmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewSegmenter creates a Segmenter with the English punkt model, which
// handles abbreviations and decimals that naive punctuation splitting
// breaks on.
func NewSegmenter() (*Segmenter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &Segmenter{tokenizer: tokenizer}, nil
}

// Sentences extracts the visible text of markup and splits it into
// normalized sentences. Malformed markup degrades to best-effort plain
// text; the result may be empty but is never an error.
func (s *Segmenter) Sentences(markup string) []string {
	text := extractText(markup)
	if text == "" {
		return nil
	}

	result := []string{}
	for _, sentence := range s.tokenizer.Tokenize(text) {
		if cleaned := normalize(sentence.Text); cleaned != "" {
			result = append(result, cleaned)
		}
	}
	return result
}

// extractText returns the visible text of markup with single spaces
// between text nodes, skipping script and style content. The html parser
// is tolerant and produces a best-effort tree for malformed input.
func extractText(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		// html.Parse almost never fails; fall back to raw text.
		return strings.TrimSpace(markup)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// normalize collapses whitespace runs to single spaces, trims, and drops
// runes outside the basic printable ASCII range. Whitespace maps to a
// space before the printable-range strip so words separated only by a
// newline or tab keep their boundary.
func normalize(sentence string) string {
	var sb strings.Builder
	for _, r := range sentence {
		switch {
		case unicode.IsSpace(r):
			sb.WriteByte(' ')
		case r >= ' ' && r <= '~':
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
