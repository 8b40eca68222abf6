// Package sqlitevec provides a SQLite-backed TurnStore using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/embeddings"
	"github.com/membench/membench/pkg/store"
)

// Store implements store.TurnStore using SQLite with the sqlite-vec
// extension for KNN queries. Unlike the chromem driver it embeds documents
// explicitly through the configured Embedder.
type Store struct {
	db       *sql.DB
	embedder embeddings.Embedder
	logger   *zap.Logger

	dimensions uint

	// turnCounter assigns strictly increasing turn ids, seeded from the
	// stored row count. Not rolled back on insert failure.
	turnCounter int
}

// Config holds configuration for the sqlite-vec store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// New creates a sqlite-vec backed turn store.
func New(c Config, embedder embeddings.Embedder, logger *zap.Logger) (*Store, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", store.ErrConnection, err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	s := &Store{
		db:         db,
		embedder:   embedder,
		logger:     logger,
		dimensions: c.Dimensions,
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	count, err := s.Count(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	s.turnCounter = count

	logger.Info("sqlite-vec turn store initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
		zap.Int("stored_turns", count),
	)

	return s, nil
}

// createTables creates the turn table and the vec0 virtual table.
// vec0 virtual tables use integer rowids, so turns carry an autoincrement
// rowid shared with their embedding row.
func (s *Store) createTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversation_turns (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			turn_key TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating turns table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS turn_embeddings USING vec0(embedding float[%d])`,
		s.dimensions,
	)
	if _, err := s.db.Exec(createVec); err != nil {
		return fmt.Errorf("creating vec0 table: %w", err)
	}

	return nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// AddTurn stores a completed conversation turn with its embedding.
func (s *Store) AddTurn(ctx context.Context, userMessage, assistantMessage string, metadata map[string]string) error {
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

	content := store.Document(userMessage, assistantMessage)

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embedding turn %d: %w", turnID, err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata for turn %d: %w", turnID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO conversation_turns(turn_key, content, metadata) VALUES (?, ?, ?)`,
		fmt.Sprintf("turn_%d", turnID), content, string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting turn %d: %w", turnID, err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting rowid for turn %d: %w", turnID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turn_embeddings(rowid, embedding) VALUES (?, ?)`,
		rowID, serializeFloat32(embedding),
	); err != nil {
		return fmt.Errorf("inserting embedding for turn %d: %w", turnID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("stored conversation turn",
		zap.Int("turn_id", turnID),
		zap.String("thread_id", metadata[store.MetaThreadID]),
	)

	return nil
}

// Search performs a KNN query over stored turns.
func (s *Store) Search(ctx context.Context, query string, n int) ([]store.SearchResult, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}
	if n <= 0 || n > total {
		n = total
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// KNN query via vec0 MATCH, then JOIN back to get the turn row.
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			t.turn_key,
			t.content,
			t.metadata,
			te.distance
		FROM turn_embeddings te
		INNER JOIN conversation_turns t ON t.rowid = te.rowid
		WHERE te.embedding MATCH ?
			AND te.k = ?
		ORDER BY te.distance
	`, serializeFloat32(queryEmbedding), n)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []store.SearchResult
	for rows.Next() {
		var turnKey, content, metaJSON string
		var distance float64
		if err := rows.Scan(&turnKey, &content, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		var meta map[string]string
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for %s: %w", turnKey, err)
		}

		results = append(results, store.SearchResult{
			ID:       turnKey,
			Content:  content,
			Metadata: meta,
			// Convert distance to similarity score: lower distance = higher similarity
			Score: float32(1.0 / (1.0 + distance)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	s.logger.Debug("searched conversation turns",
		zap.Int("requested", n),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Count returns the number of stored turns.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversation_turns`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting turns: %w", err)
	}
	return count, nil
}

// Clear deletes all stored turns and embeddings. The turn counter restarts
// from zero.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turn_embeddings`); err != nil {
		return fmt.Errorf("clearing embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_turns`); err != nil {
		return fmt.Errorf("clearing turns: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.turnCounter = 0
	s.logger.Info("cleared conversation turn store")
	return nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ store.TurnStore = (*Store)(nil)
