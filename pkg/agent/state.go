// Package agent provides the per-turn state structure, the middleware
// contract, and the turn engine that coordinates them around one model
// invocation.
package agent

import (
	"fmt"

	"github.com/membench/membench/pkg/chat"
)

// State is the mutable per-turn structure shared by all middleware: an
// ordered, append-only sequence of role-tagged messages plus the thread
// identifier scoping this turn. The engine owns it for the duration of one
// invocation; middleware may read and append but must not reorder or delete
// existing entries.
type State struct {
	threadID string
	messages []chat.Message
}

// NewState creates a turn state seeded with the given message history.
// The slice is copied so callers cannot mutate engine-owned state.
func NewState(threadID string, history []chat.Message) *State {
	messages := make([]chat.Message, len(history))
	copy(messages, history)
	return &State{
		threadID: threadID,
		messages: messages,
	}
}

// ThreadID returns the session identifier bound to this turn. It is stable
// across all hooks of the same turn.
func (s *State) ThreadID() string {
	return s.threadID
}

// Messages returns the ordered message sequence. Callers must treat the
// returned slice as read-only.
func (s *State) Messages() []chat.Message {
	return s.messages
}

// Append adds a message to the end of the sequence.
func (s *State) Append(m chat.Message) {
	s.messages = append(s.messages, m)
}

// Len returns the number of messages in the turn state.
func (s *State) Len() int {
	return len(s.messages)
}

// LatestMessage scans the sequence from the end and returns the first message
// whose role matches. Returns ErrMessageNotFound when none exists.
func (s *State) LatestMessage(role chat.Role) (chat.Message, error) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == role {
			return s.messages[i], nil
		}
	}
	return chat.Message{}, fmt.Errorf("%w: %s", ErrMessageNotFound, role)
}
