package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/membench/membench/pkg/store"
)

// MockTurnStore is an in-memory TurnStore that records added turns and
// searches them by naive token overlap.
type MockTurnStore struct {
	mu    sync.Mutex
	turns []store.SearchResult

	// Results, when set, is returned verbatim by Search.
	Results []store.SearchResult

	// FailAdd causes AddTurn to return ErrConnection.
	FailAdd bool

	// FailSearch causes Search to return ErrConnection.
	FailSearch bool

	// LastSearchN records the n passed to the most recent Search call.
	LastSearchN int
}

func NewMockTurnStore() *MockTurnStore {
	return &MockTurnStore{}
}

func (m *MockTurnStore) AddTurn(_ context.Context, userMessage, assistantMessage string, metadata map[string]string) error {
	if m.FailAdd {
		return store.ErrConnection
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	meta := map[string]string{
		store.MetaUserMessage: userMessage,
		store.MetaAIMessage:   assistantMessage,
		store.MetaTimestamp:   time.Now().Format(time.RFC3339),
		store.MetaTurnID:      fmt.Sprintf("%d", len(m.turns)+1),
	}
	for k, v := range metadata {
		meta[k] = v
	}

	m.turns = append(m.turns, store.SearchResult{
		ID:       fmt.Sprintf("turn_%d", len(m.turns)+1),
		Content:  store.Document(userMessage, assistantMessage),
		Metadata: meta,
		Score:    1,
	})
	return nil
}

func (m *MockTurnStore) Search(_ context.Context, query string, n int) ([]store.SearchResult, error) {
	m.mu.Lock()
	m.LastSearchN = n
	m.mu.Unlock()

	if m.FailSearch {
		return nil, store.ErrConnection
	}
	if m.Results != nil {
		if len(m.Results) > n {
			return m.Results[:n], nil
		}
		return m.Results, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	terms := strings.Fields(strings.ToLower(query))
	var matched []store.SearchResult
	for _, t := range m.turns {
		content := strings.ToLower(t.Content)
		overlap := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				overlap++
			}
		}
		if overlap > 0 {
			t.Score = float32(overlap) / float32(len(terms))
			matched = append(matched, t)
		}
	}
	if len(matched) > n {
		matched = matched[:n]
	}
	return matched, nil
}

func (m *MockTurnStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns), nil
}

func (m *MockTurnStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
	return nil
}

func (m *MockTurnStore) Close() error {
	return nil
}

// Turns returns a copy of everything added so far.
func (m *MockTurnStore) Turns() []store.SearchResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.SearchResult(nil), m.turns...)
}
