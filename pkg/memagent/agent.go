// Package memagent wires a model, a memory backend and the matching
// middleware into a conversational agent. Each constructor corresponds to a
// memory strategy: baseline (in-process only), vector, graph, hybrid.
package memagent

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/agent"
	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/graph"
	"github.com/membench/membench/pkg/llm"
	"github.com/membench/membench/pkg/middleware"
	"github.com/membench/membench/pkg/rerank"
	"github.com/membench/membench/pkg/store"
)

// Agent runs conversation turns against one memory strategy. Short-term
// history is kept in process per thread; long-term memory lives in whichever
// backends the constructor attached.
type Agent struct {
	engine  *agent.Engine
	store   store.TurnStore // nil for baseline and graph
	gateway *graph.Gateway  // nil unless graph or hybrid
	logger  *zap.Logger

	mu        sync.Mutex
	histories map[string][]chat.Message
}

// NewBaseline builds an agent with no long-term memory at all.
func NewBaseline(model llm.Client, logger *zap.Logger) (*Agent, error) {
	return build(model, BaselinePrompt, nil, nil, nil, logger)
}

// NewVector builds an agent backed by the vector store: every turn is
// committed, and retrieval injects reranked similar conversations.
func NewVector(model llm.Client, s store.TurnStore, r rerank.Reranker, tuning middleware.RetrievalTuning, logger *zap.Logger) (*Agent, error) {
	builder := middleware.NewContextBuilder(logger)
	mw := []agent.Middleware{
		middleware.NewVectorAugmentation(s, logger),
		middleware.NewVectorRetrieval(s, r, builder, tuning, logger),
	}
	return build(model, VectorPrompt, mw, s, nil, logger)
}

// NewGraph builds an agent backed by the knowledge graph. Connects the
// gateway and performs tool discovery before returning, so a missing graph
// service fails here rather than mid-conversation.
func NewGraph(ctx context.Context, model llm.Client, g *graph.Gateway, logger *zap.Logger) (*Agent, error) {
	if err := handshake(ctx, g, logger); err != nil {
		return nil, err
	}
	builder := middleware.NewContextBuilder(logger)
	mw := []agent.Middleware{
		middleware.NewGraphAugmentation(g, logger),
		middleware.NewGraphRetrieval(g, builder, logger),
	}
	return build(model, GraphPrompt, mw, nil, g, logger)
}

// NewHybrid builds an agent committing to both backends and retrieving from
// both in a single assembled context block.
func NewHybrid(ctx context.Context, model llm.Client, g *graph.Gateway, s store.TurnStore, r rerank.Reranker, tuning middleware.RetrievalTuning, logger *zap.Logger) (*Agent, error) {
	if err := handshake(ctx, g, logger); err != nil {
		return nil, err
	}
	builder := middleware.NewContextBuilder(logger)
	mw := []agent.Middleware{
		middleware.NewHybridRetrieval(g, s, r, builder, tuning, logger),
		middleware.NewGraphAugmentation(g, logger),
		middleware.NewVectorAugmentation(s, logger),
	}
	return build(model, HybridPrompt, mw, s, g, logger)
}

func build(model llm.Client, prompt string, mw []agent.Middleware, s store.TurnStore, g *graph.Gateway, logger *zap.Logger) (*Agent, error) {
	engine, err := agent.NewEngine(agent.Config{
		Model:        model,
		SystemPrompt: prompt,
		Middleware:   mw,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	return &Agent{
		engine:    engine,
		store:     s,
		gateway:   g,
		logger:    logger,
		histories: make(map[string][]chat.Message),
	}, nil
}

// handshake verifies the graph service is reachable and advertises its read
// surface.
func handshake(ctx context.Context, g *graph.Gateway, logger *zap.Logger) error {
	if err := g.Connect(ctx); err != nil {
		return err
	}
	tools, err := g.Tools(ctx, true)
	if err != nil {
		return err
	}
	logger.Debug("graph service tools discovered", zap.Int("count", len(tools)))
	return nil
}

// Run executes one conversation turn on a thread and returns the model
// reply. A non-nil error alongside a non-empty reply means a memory commit
// failed after the reply was produced; the reply is still usable.
//
// Retrieved context injected during the turn is ephemeral. Only the user
// message and the model reply enter the thread's short-term history.
func (a *Agent) Run(ctx context.Context, message, threadID string) (string, error) {
	a.mu.Lock()
	history := append([]chat.Message(nil), a.histories[threadID]...)
	a.mu.Unlock()

	state := agent.NewState(threadID, history)
	userMsg := chat.NewTextMessage(chat.RoleHuman, message)
	state.Append(userMsg)

	reply, err := a.engine.Run(ctx, state)
	if reply.Role != chat.RoleAI {
		return "", err
	}

	a.mu.Lock()
	a.histories[threadID] = append(a.histories[threadID], userMsg, reply)
	a.mu.Unlock()

	return chat.EnsureText(reply, a.logger), err
}

// RunMessages executes one turn over a caller-supplied history. The final
// entry must be the user message being answered. Nothing is recorded into
// the thread's short-term history; this is the one-shot evaluation path.
func (a *Agent) RunMessages(ctx context.Context, messages []chat.Message, threadID string) (string, error) {
	state := agent.NewState(threadID, messages)
	reply, err := a.engine.Run(ctx, state)
	if reply.Role != chat.RoleAI {
		return "", err
	}
	return chat.EnsureText(reply, a.logger), err
}

// SearchPast searches stored conversation turns directly, outside any model
// turn. Returns nothing when no vector store is attached.
func (a *Agent) SearchPast(ctx context.Context, query string, n int) ([]store.SearchResult, error) {
	if a.store == nil {
		return nil, nil
	}
	return a.store.Search(ctx, query, n)
}

// Stats reports the number of conversation turns held in the vector store.
// Zero when no store is attached.
func (a *Agent) Stats(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, nil
	}
	return a.store.Count(ctx)
}

// Clear wipes every attached long-term backend and the in-process histories.
// All backends are attempted even when one fails; errors are joined.
func (a *Agent) Clear(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		if err := a.store.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.gateway != nil {
		if err := a.gateway.Reset(ctx, nil); err != nil {
			errs = append(errs, err)
		}
	}

	a.mu.Lock()
	a.histories = make(map[string][]chat.Message)
	a.mu.Unlock()

	return errors.Join(errs...)
}

// Close releases the attached backends.
func (a *Agent) Close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.gateway != nil {
		if err := a.gateway.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
