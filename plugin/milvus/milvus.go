// Package milvus owns the connection to the Milvus vector index and the
// lifecycle of the email embedding collection.
package milvus

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/pkg/errors"

	"github.com/hrygo/mailsense/plugin/ai"
)

const (
	vectorField  = "email_embedding"
	emailIDField = "email_id"

	defaultConnectAttempts = 10
	defaultConnectDelay    = 30 * time.Second
	dialTimeout            = 10 * time.Second
)

// ErrUnavailable indicates the vector index could not be reached. At
// startup it is fatal to the process; mid-request it is fatal to that
// request only.
var ErrUnavailable = stderrors.New("vector index unavailable")

// Chunk is one sentence of an email body queued for indexing.
type Chunk struct {
	Text    string
	EmailID int64
}

// Hit is a single nearest-neighbor match. Score is cosine similarity as
// returned by the index, higher is more similar.
type Hit struct {
	EmailID int64
	Score   float32
}

// connState tracks the client connection lifecycle.
type connState int32

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
	stateFailed
)

// Config carries the connection and collection settings.
type Config struct {
	Address    string // host:port
	Username   string
	Password   string
	Database   string
	Collection string
	Dimensions int

	// ConnectAttempts and ConnectDelay bound the startup retry loop.
	// Zero values use the defaults.
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Service is the vector index client. It owns one connection for the
// process lifetime; concurrent Insert and Search are safe, delegated to
// the index's own guarantees. There is no automatic reconnect: a failed
// connection requires constructing a new Service.
type Service struct {
	client     client.Client
	embedding  ai.EmbeddingService
	collection string
	dimensions int

	// state gates every operation: anything but stateConnected is
	// rejected with ErrUnavailable.
	state atomic.Int32

	loadMu sync.Mutex
	loaded bool
}

func (s *Service) setState(state connState) {
	s.state.Store(int32(state))
}

// ready rejects operations unless the client holds a live connection.
func (s *Service) ready() error {
	if state := connState(s.state.Load()); state != stateConnected {
		return errors.Wrapf(ErrUnavailable, "client is not connected (state %d)", state)
	}
	return nil
}

// NewService connects to Milvus with a bounded fixed-delay retry loop and
// returns a connected Service, or ErrUnavailable once attempts are
// exhausted.
func NewService(ctx context.Context, cfg Config, embedding ai.EmbeddingService) (*Service, error) {
	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}
	delay := cfg.ConnectDelay
	if delay <= 0 {
		delay = defaultConnectDelay
	}

	s := &Service{
		embedding:  embedding,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		s.setState(stateConnecting)
		c, err := connect(ctx, cfg)
		if err == nil {
			s.client = c
			s.setState(stateConnected)
			return s, nil
		}
		lastErr = err
		slog.Warn("milvus connect failed",
			slog.String("address", cfg.Address),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.String("error", err.Error()))

		if attempt == attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			s.setState(stateFailed)
			return nil, errors.Wrap(ErrUnavailable, ctx.Err().Error())
		}
	}

	s.setState(stateFailed)
	return nil, errors.Wrapf(ErrUnavailable, "connect to %s failed after %d attempts: %v", cfg.Address, attempts, lastErr)
}

func connect(ctx context.Context, cfg Config) (client.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return client.NewClient(dialCtx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
}

// CreateOrGetCollection ensures the email embedding collection exists and
// carries a FLAT cosine index on the vector field. With reset, an existing
// collection is dropped and recreated. Must complete before the server
// accepts traffic so schema setup never races concurrent inserts or
// searches.
func (s *Service) CreateOrGetCollection(ctx context.Context, reset bool) error {
	if err := s.ready(); err != nil {
		return err
	}

	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "check collection %s: %v", s.collection, err)
	}

	if exists && reset {
		if err := s.client.DropCollection(ctx, s.collection); err != nil {
			return errors.Wrapf(err, "failed to drop collection %s", s.collection)
		}
		slog.Info("dropped existing collection", slog.String("collection", s.collection))
		exists = false
		s.setLoaded(false)
	}

	if !exists {
		// Dynamic fields stay enabled so future untyped fields need no
		// schema migration.
		schema := entity.NewSchema().
			WithName(s.collection).
			WithDescription("Collection for email embeddings").
			WithDynamicFieldEnabled(true).
			WithField(entity.NewField().
				WithName("id").
				WithDataType(entity.FieldTypeInt64).
				WithIsPrimaryKey(true).
				WithIsAutoID(true)).
			WithField(entity.NewField().
				WithName(vectorField).
				WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(s.dimensions))).
			WithField(entity.NewField().
				WithName(emailIDField).
				WithDataType(entity.FieldTypeInt64))

		if err := s.client.CreateCollection(ctx, schema, 2); err != nil {
			return errors.Wrapf(err, "failed to create collection %s", s.collection)
		}
		slog.Info("created collection", slog.String("collection", s.collection))
	}

	return s.ensureIndex(ctx)
}

// ensureIndex creates the FLAT cosine index on the vector field. FLAT is
// exact search: correctness over scale, appropriate for small-to-medium
// corpora.
func (s *Service) ensureIndex(ctx context.Context) error {
	idx, err := entity.NewIndexFlat(entity.COSINE)
	if err != nil {
		return errors.Wrap(err, "failed to build index definition")
	}
	if err := s.client.CreateIndex(ctx, s.collection, vectorField, idx, false); err != nil {
		return errors.Wrapf(err, "failed to create index on %s", vectorField)
	}
	return nil
}

// Insert embeds all chunk texts in one batched call and inserts one row
// per chunk. There is no uniqueness enforcement: re-ingesting a document
// creates duplicate vectors, which only amplify that document in ranking.
// Either every chunk is embedded and inserted or none are.
func (s *Service) Insert(ctx context.Context, chunks []Chunk) error {
	if err := s.ready(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	emailIDs := make([]int64, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		emailIDs[i] = chunk.EmailID
	}

	vectors, err := s.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return errors.Wrap(err, "failed to embed chunks")
	}

	_, err = s.client.Insert(ctx, s.collection, "",
		entity.NewColumnFloatVector(vectorField, s.dimensions, vectors),
		entity.NewColumnInt64(emailIDField, emailIDs),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert %d vectors", len(chunks))
	}
	return nil
}

// Search embeds the query and returns up to k nearest neighbors whose
// cosine similarity is at least threshold, in the order the index returns
// them. An empty result set is a valid empty slice, not an error.
func (s *Service) Search(ctx context.Context, query string, k int, threshold float32) ([]Hit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	vector, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}

	sp, err := entity.NewIndexFlatSearchParam()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build search param")
	}

	results, err := s.client.Search(ctx, s.collection, nil, "",
		[]string{emailIDField},
		[]entity.Vector{entity.FloatVector(vector)},
		vectorField, entity.COSINE, k, sp)
	if err != nil {
		return nil, errors.Wrap(err, "vector search failed")
	}

	return hitsFromResults(results, threshold)
}

// hitsFromResults maps raw search results to Hits, dropping every hit
// whose similarity is strictly below threshold. Index order is preserved.
func hitsFromResults(results []client.SearchResult, threshold float32) ([]Hit, error) {
	hits := []Hit{}
	for _, result := range results {
		column := result.Fields.GetColumn(emailIDField)
		if column == nil {
			return nil, errors.Errorf("search result missing %s field", emailIDField)
		}
		for i := 0; i < result.ResultCount; i++ {
			emailID, err := column.GetAsInt64(i)
			if err != nil {
				return nil, errors.Wrap(err, "failed to read email id from result")
			}
			if result.Scores[i] < threshold {
				continue
			}
			hits = append(hits, Hit{EmailID: emailID, Score: result.Scores[i]})
		}
	}
	return hits, nil
}

// Count returns the number of indexed vectors.
func (s *Service) Count(ctx context.Context) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	stats, err := s.client.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get statistics for %s", s.collection)
	}
	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse row count")
	}
	return count, nil
}

// ensureLoaded loads the collection into the searchable state. Loading is
// idempotent and is checked before every search.
func (s *Service) ensureLoaded(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if s.loaded {
		return nil
	}
	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return errors.Wrapf(err, "failed to load collection %s", s.collection)
	}
	s.loaded = true
	return nil
}

func (s *Service) setLoaded(loaded bool) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.loaded = loaded
}

// Close releases the underlying connection. Subsequent operations are
// rejected with ErrUnavailable.
func (s *Service) Close() error {
	if s.client == nil {
		return nil
	}
	s.setState(stateDisconnected)
	return s.client.Close()
}
