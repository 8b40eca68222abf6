// Package anthropic implements llm.Client on the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/llm"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = string(anthropic.ModelClaudeSonnet4_20250514)

	// DefaultMaxTokens bounds the reply length.
	DefaultMaxTokens = 1024
)

// Client wraps the Anthropic SDK client.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

// Config holds configuration for the Anthropic client.
type Config struct {
	// APIKey authenticates against the API. When empty the SDK falls back
	// to the ANTHROPIC_API_KEY environment variable.
	APIKey string

	// Model is the model identifier. Defaults to DefaultModel if empty.
	Model string

	// MaxTokens bounds the reply length. Defaults to DefaultMaxTokens if zero.
	MaxTokens int64
}

// NewClient creates a new Anthropic-backed model client.
func NewClient(c Config, logger *zap.Logger) *Client {
	var opts []option.RequestOption
	if c.APIKey != "" {
		opts = append(opts, option.WithAPIKey(c.APIKey))
	}

	model := c.Model
	if model == "" {
		model = DefaultModel
	}

	maxTokens := c.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Complete sends the conversation to the Messages API and returns the reply.
func (c *Client) Complete(ctx context.Context, system string, messages []chat.Message) (chat.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  convertMessages(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return chat.Message{}, fmt.Errorf("anthropic messages: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	c.logger.Debug("model reply",
		zap.String("model", string(c.model)),
		zap.Int("input_tokens", int(resp.Usage.InputTokens)),
		zap.Int("output_tokens", int(resp.Usage.OutputTokens)),
	)

	return chat.NewTextMessage(chat.RoleAI, text), nil
}

// convertMessages maps the chat message sequence onto Anthropic message
// params. System-tagged entries (injected retrieval context) are carried as
// user-role text so that mid-conversation instructions survive the API's
// single-system-prompt shape.
func convertMessages(messages []chat.Message) []anthropic.MessageParam {
	converted := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		text := m.Text()
		switch m.Role {
		case chat.RoleAI:
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}
	return converted
}

var _ llm.Client = (*Client)(nil)
