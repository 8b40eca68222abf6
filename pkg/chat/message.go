// Package chat defines the conversation message model shared by the turn
// engine, middleware, and memory backends.
//
// Roles are a closed set decided once at message construction. Downstream
// code matches on Role directly instead of probing message values for type
// information.
package chat

import (
	"fmt"

	"go.uber.org/zap"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleSystem tags instructional entries, including injected retrieval context.
	RoleSystem Role = "system"

	// RoleHuman tags messages authored by the user.
	RoleHuman Role = "human"

	// RoleAI tags messages produced by the model.
	RoleAI Role = "ai"
)

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAI:
		return true
	}
	return false
}

// Message is a single conversation entry. Content is stored as blocks to
// support structured multi-part content in a provider-agnostic way; memory
// backends consume the flattened text form via Text.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one piece of content within a message. The Type field
// determines which other fields are populated.
type ContentBlock struct {
	Type string `json:"type"` // "text", "image", ...

	// Text content (type="text")
	Text string `json:"text,omitempty"`

	// Non-text payloads carried opaquely (type!="text")
	Data map[string]any `json:"data,omitempty"`
}

// NewTextMessage creates a plain text message with the given role.
func NewTextMessage(role Role, text string) Message {
	return Message{
		Role: role,
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
	}
}

// Text returns the concatenated text content from all text blocks.
func (m *Message) Text() string {
	var result string
	for _, block := range m.Content {
		if block.Type == "text" {
			result += block.Text
		}
	}
	return result
}

// EnsureText flattens a message's content to a string. Pure text content
// passes through unchanged; anything else degrades to a string representation
// and is logged, since memory backends assume text. It never fails: losing a
// turn in an evaluation run is worse than slightly malformed text.
func EnsureText(m Message, logger *zap.Logger) string {
	allText := true
	for _, block := range m.Content {
		if block.Type != "text" {
			allText = false
			break
		}
	}
	if allText {
		return m.Text()
	}

	logger.Warn("message content is not plain text, degrading to string representation",
		zap.String("role", string(m.Role)),
		zap.Int("blocks", len(m.Content)),
	)
	return fmt.Sprintf("%v", m.Content)
}
