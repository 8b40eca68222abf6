package middleware

import (
	"sync"

	"github.com/membench/membench/pkg/chat"
)

// pendingTurns holds the user message captured before the model call until
// the matching after-hook commits it. Keyed by thread id so interleaved
// turns on different threads cannot contaminate each other.
type pendingTurns struct {
	mu       sync.Mutex
	byThread map[string]chat.Message
}

func newPendingTurns() *pendingTurns {
	return &pendingTurns{byThread: make(map[string]chat.Message)}
}

func (p *pendingTurns) put(threadID string, m chat.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byThread[threadID] = m
}

// take removes and returns the pending message for a thread. The entry is
// cleared regardless of what the caller does with it afterwards.
func (p *pendingTurns) take(threadID string) (chat.Message, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.byThread[threadID]
	if ok {
		delete(p.byThread, threadID)
	}
	return m, ok
}
