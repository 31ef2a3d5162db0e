// Package retrieval implements the ingestion and query pipelines over the
// vector index and the email record store.
package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/mailsense/plugin/milvus"
	"github.com/hrygo/mailsense/store"
)

// searchLimit is how many nearest neighbors each query requests from the
// index before aggregation. The response count only truncates the
// aggregated ranking.
const searchLimit = 10

// Index is the vector index capability the pipelines depend on.
type Index interface {
	Insert(ctx context.Context, chunks []milvus.Chunk) error
	Search(ctx context.Context, query string, k int, threshold float32) ([]milvus.Hit, error)
}

// Segmenter splits markup into sentence units.
type Segmenter interface {
	Sentences(markup string) []string
}

// EmailStore resolves email ids to their records.
type EmailStore interface {
	GetEmail(ctx context.Context, id int64) (*store.Email, error)
}

// Answer is one ranked result returned to the caller.
type Answer struct {
	EmailID         int64   `json:"-"`
	Subject         string  `json:"subject"`
	SimilarQuestion string  `json:"similar_question"`
	Score           float32 `json:"score"`
}

// Service runs the ingestion and query pipelines. Stages within one
// request are strictly sequential; safe for concurrent requests.
type Service struct {
	store     EmailStore
	index     Index
	segmenter Segmenter
}

// NewService creates a retrieval service.
func NewService(store EmailStore, index Index, segmenter Segmenter) *Service {
	return &Service{
		store:     store,
		index:     index,
		segmenter: segmenter,
	}
}

// Ingest segments the email's markup into sentences and indexes one
// vector per sentence, tagged with the email id. Embedding happens in one
// batched call inside the index client; on failure nothing is inserted.
// An email whose markup yields no sentences is indexed as nothing, not an
// error.
func (s *Service) Ingest(ctx context.Context, email *store.Email) error {
	markup := email.HTML
	if strings.TrimSpace(markup) == "" {
		markup = email.Body
	}

	sentences := s.segmenter.Sentences(markup)
	if len(sentences) == 0 {
		slog.Debug("email yielded no sentences", slog.Int64("email_id", email.ID))
		return nil
	}

	chunks := make([]milvus.Chunk, len(sentences))
	for i, sentence := range sentences {
		chunks[i] = milvus.Chunk{Text: sentence, EmailID: email.ID}
	}

	if err := s.index.Insert(ctx, chunks); err != nil {
		return errors.Wrapf(err, "failed to index email %d", email.ID)
	}

	slog.Info("ingested email",
		slog.Int64("email_id", email.ID),
		slog.Int("sentences", len(sentences)))
	return nil
}

// Query embeds the query via the index client, aggregates neighbor scores
// per email, and resolves the top count emails from the record store. A
// ranked id that no longer resolves is skipped and logged; index/store
// drift must not fail an otherwise answerable query, so the response may
// hold fewer than count answers. No matches is a valid empty answer set.
func (s *Service) Query(ctx context.Context, query string, count int, threshold float32) ([]*Answer, error) {
	hits, err := s.index.Search(ctx, query, searchLimit, threshold)
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}

	answers := []*Answer{}
	for _, ranked := range Rank(hits, count) {
		email, err := s.store.GetEmail(ctx, ranked.EmailID)
		if err != nil {
			if errors.Is(err, store.ErrEmailNotFound) {
				slog.Warn("ranked email no longer resolves, skipping",
					slog.Int64("email_id", ranked.EmailID))
				continue
			}
			return nil, errors.Wrapf(err, "failed to resolve email %d", ranked.EmailID)
		}
		answers = append(answers, &Answer{
			EmailID:         email.ID,
			Subject:         email.Subject,
			SimilarQuestion: email.HTML,
			Score:           ranked.Score,
		})
	}
	return answers, nil
}
