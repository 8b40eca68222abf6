package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/llm"
)

// Engine executes one conversation turn: before hooks, model invocation,
// after hooks. One turn is one logical flow of control; the engine performs
// no internal concurrency.
type Engine struct {
	model        llm.Client
	systemPrompt string
	middleware   []Middleware
	logger       *zap.Logger
}

// Config holds configuration for the turn engine.
type Config struct {
	// Model produces the assistant reply.
	Model llm.Client

	// SystemPrompt is the backend-specific system prompt.
	SystemPrompt string

	// Middleware run around the model invocation, in the given order.
	Middleware []Middleware

	// Logger is the configured zap logger.
	Logger *zap.Logger
}

// NewEngine creates a turn engine.
func NewEngine(c Config) (*Engine, error) {
	if c.Model == nil {
		return nil, errors.New("model client is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	return &Engine{
		model:        c.Model,
		systemPrompt: c.SystemPrompt,
		middleware:   c.Middleware,
		logger:       c.Logger,
	}, nil
}

// Run processes one turn against the given state. Before-model hook errors
// abort the turn: they fire ahead of the model call and a structural failure
// there means the turn cannot be trusted. After-model (commit) errors do not
// discard the reply — the read path and the write path are decoupled, so the
// reply is returned alongside the joined commit errors and the caller decides
// whether to surface them.
func (e *Engine) Run(ctx context.Context, state *State) (chat.Message, error) {
	for _, m := range e.middleware {
		if err := m.BeforeModel(ctx, state); err != nil {
			return chat.Message{}, fmt.Errorf("middleware %s before model: %w", m.Name(), err)
		}
	}

	reply, err := e.model.Complete(ctx, e.systemPrompt, state.Messages())
	if err != nil {
		return chat.Message{}, fmt.Errorf("model invocation: %w", err)
	}
	if reply.Role != chat.RoleAI {
		return chat.Message{}, fmt.Errorf("%w: model returned role %q", ErrTypeMismatch, reply.Role)
	}
	state.Append(reply)

	var commitErrs []error
	for _, m := range e.middleware {
		if err := m.AfterModel(ctx, state); err != nil {
			e.logger.Error("after-model hook failed",
				zap.String("middleware", m.Name()),
				zap.String("thread_id", state.ThreadID()),
				zap.Error(err),
			)
			commitErrs = append(commitErrs, fmt.Errorf("middleware %s after model: %w", m.Name(), err))
		}
	}

	return reply, errors.Join(commitErrs...)
}
