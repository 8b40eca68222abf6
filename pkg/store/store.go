// Package store provides interfaces and implementations for persisting
// conversation turns as embedded documents and searching them by similarity.
package store

import "context"

const (
	// CollectionName is the fixed collection identity for conversation turns.
	CollectionName = "baseline_conversations"

	// Metadata keys stamped onto every stored turn.
	MetaUserMessage = "user_message"
	MetaAIMessage   = "ai_message"
	MetaTimestamp   = "timestamp"
	MetaTurnID      = "turn_id"
	MetaThreadID    = "thread_id"
)

// SearchResult is a single similarity-search hit. Results are ephemeral,
// produced per-query and never persisted.
type SearchResult struct {
	// ID is the stored document id (e.g. "turn_4"). Empty for backends
	// that do not expose ids.
	ID string `json:"id,omitempty"`

	// Content is the stored turn text.
	Content string `json:"content"`

	// Metadata is the string-keyed mapping stored with the turn.
	Metadata map[string]string `json:"metadata"`

	// Score is the cosine similarity of the hit (higher = more similar).
	// Zero for backends without a similarity signal.
	Score float32 `json:"score,omitempty"`
}

// TurnStore persists completed conversation turns and retrieves them by
// similarity. Implementations: chromem (embedded, default), sqlitevec.
//
// Turn ids assigned by AddTurn are strictly increasing and unique within a
// store's lifetime; the counter survives restarts via the store's own count.
// The counter and collection are mutated without locking — safe only under
// the one-turn-at-a-time processing model.
type TurnStore interface {
	// AddTurn stores a completed turn as one embeddable document combining
	// both speakers, stamped with a fresh turn id and timestamp. The counter
	// is not rolled back when the underlying insert fails.
	AddTurn(ctx context.Context, userMessage, assistantMessage string, metadata map[string]string) error

	// Search returns the turns most similar to query, at most n. An empty
	// store yields an empty result, never an error; n is clamped to the
	// current collection size.
	Search(ctx context.Context, query string, n int) ([]SearchResult, error)

	// Count returns the number of stored turns.
	Count(ctx context.Context) (int, error)

	// Clear irreversibly deletes all stored turns and reinitializes an empty
	// collection with the same identity and similarity configuration. Safe
	// to call on an already-empty store.
	Clear(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// Document is one embeddable conversation turn, combining both speakers so a
// similarity hit carries the complete exchange.
func Document(userMessage, assistantMessage string) string {
	return "User: " + userMessage + "\n\nAssistant: " + assistantMessage
}
