package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/membench/membench/pkg/chat"
)

// ModelCall records one Complete invocation.
type ModelCall struct {
	System   string
	Messages []chat.Message
}

// ScriptedModel is a model client that replays canned replies in order and
// records every call for inspection.
type ScriptedModel struct {
	mu      sync.Mutex
	replies []string
	next    int

	// Calls accumulates every Complete invocation.
	Calls []ModelCall

	// Fail causes Complete to return an error.
	Fail bool
}

func NewScriptedModel(replies ...string) *ScriptedModel {
	return &ScriptedModel{replies: replies}
}

func (m *ScriptedModel) Complete(_ context.Context, system string, messages []chat.Message) (chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, ModelCall{
		System:   system,
		Messages: append([]chat.Message(nil), messages...),
	})

	if m.Fail {
		return chat.Message{}, fmt.Errorf("scripted model failure")
	}

	reply := "ok"
	if m.next < len(m.replies) {
		reply = m.replies[m.next]
		m.next++
	}
	return chat.NewTextMessage(chat.RoleAI, reply), nil
}

// LastCall returns the most recent Complete invocation.
func (m *ScriptedModel) LastCall() ModelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return ModelCall{}
	}
	return m.Calls[len(m.Calls)-1]
}
