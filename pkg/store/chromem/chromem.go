// Package chromem provides the default TurnStore implementation on
// chromem-go, a pure Go embedded vector database with on-disk persistence.
package chromem

import (
	"context"
	"fmt"
	"strconv"
	"time"

	chromemgo "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/embeddings"
	"github.com/membench/membench/pkg/store"
)

// Store implements store.TurnStore backed by a persistent chromem-go
// collection using cosine similarity.
type Store struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
	embedFn    chromemgo.EmbeddingFunc
	logger     *zap.Logger

	// turnCounter assigns strictly increasing turn ids. Seeded from the
	// collection count so ids keep increasing across process restarts.
	// Not rolled back on insert failure.
	turnCounter int
}

// Config holds configuration for the chromem store.
type Config struct {
	// Path is the on-disk directory for this store instance.
	Path string
}

// New creates a chromem-backed turn store, opening (or creating) the
// persistent collection at the configured path.
func New(c Config, embedder embeddings.Embedder, logger *zap.Logger) (*Store, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	db, err := chromemgo.NewPersistentDB(c.Path, false)
	if err != nil {
		return nil, fmt.Errorf("%w: opening persistent db at %q: %v", store.ErrConnection, c.Path, err)
	}

	embedFn := chromemgo.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text)
	})

	s := &Store{
		db:      db,
		embedFn: embedFn,
		logger:  logger,
	}

	if err := s.openCollection(); err != nil {
		return nil, err
	}
	s.turnCounter = s.collection.Count()

	logger.Info("chromem turn store initialized",
		zap.String("path", c.Path),
		zap.String("collection", store.CollectionName),
		zap.Int("stored_turns", s.turnCounter),
	)

	return s, nil
}

// openCollection gets or creates the single conversation collection.
// chromem-go always ranks with cosine similarity, matching the store
// contract's similarity space.
func (s *Store) openCollection() error {
	collection, err := s.db.GetOrCreateCollection(store.CollectionName, nil, s.embedFn)
	if err != nil {
		return fmt.Errorf("%w: creating collection %q: %v", store.ErrConnection, store.CollectionName, err)
	}
	s.collection = collection
	return nil
}

// AddTurn stores a completed conversation turn as a single document.
func (s *Store) AddTurn(ctx context.Context, userMessage, assistantMessage string, metadata map[string]string) error {
	// Counter monotonicity is not rolled back on failure; gaps in turn ids
	// are acceptable for evaluation use.
	s.turnCounter++
	turnID := s.turnCounter

	meta := make(map[string]string, len(metadata)+4)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[store.MetaUserMessage] = userMessage
	meta[store.MetaAIMessage] = assistantMessage
	meta[store.MetaTimestamp] = time.Now().Format(time.RFC3339)
	meta[store.MetaTurnID] = strconv.Itoa(turnID)

	doc := chromemgo.Document{
		ID:       fmt.Sprintf("turn_%d", turnID),
		Content:  store.Document(userMessage, assistantMessage),
		Metadata: meta,
	}

	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("adding turn %d: %w", turnID, err)
	}

	s.logger.Debug("stored conversation turn",
		zap.Int("turn_id", turnID),
		zap.String("thread_id", metadata[store.MetaThreadID]),
	)

	return nil
}

// Search performs a cosine-similarity search over stored turns.
func (s *Store) Search(ctx context.Context, query string, n int) ([]store.SearchResult, error) {
	total := s.collection.Count()
	if total == 0 {
		return nil, nil
	}

	// chromem-go requires nResults <= collection size.
	if n <= 0 || n > total {
		n = total
	}

	results, err := s.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	hits := make([]store.SearchResult, 0, len(results))
	for _, r := range results {
		hits = append(hits, store.SearchResult{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    r.Similarity,
		})
	}

	s.logger.Debug("searched conversation turns",
		zap.Int("requested", n),
		zap.Int("results", len(hits)),
	)

	return hits, nil
}

// Count returns the number of stored turns.
func (s *Store) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}

// Clear deletes the collection and recreates it empty under the same name
// and similarity configuration. The turn counter restarts from zero.
func (s *Store) Clear(_ context.Context) error {
	if err := s.db.DeleteCollection(store.CollectionName); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	if err := s.openCollection(); err != nil {
		return err
	}
	s.turnCounter = 0

	s.logger.Info("cleared conversation turn store")
	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	// chromem-go persists on write, nothing to flush
	return nil
}

var _ store.TurnStore = (*Store)(nil)
