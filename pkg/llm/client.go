// Package llm defines the model-invocation boundary of the turn engine.
//
// The engine is opinionated about WHEN the model runs (between the before and
// after middleware hooks); implementations of Client decide HOW. The prompt
// content and the model's reasoning are external collaborators as far as the
// memory pipeline is concerned.
package llm

import (
	"context"

	"github.com/membench/membench/pkg/chat"
)

// Client produces one model reply for a conversation.
type Client interface {
	// Complete sends the system prompt and the ordered message sequence to
	// the model and returns the assistant reply as an ai-tagged message.
	Complete(ctx context.Context, system string, messages []chat.Message) (chat.Message, error)
}
