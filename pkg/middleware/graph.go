package middleware

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/agent"
	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/graph"
)

// Graph search limits. Matches the defaults of the Graphiti service.
const (
	DefaultMaxNodes = 10
	DefaultMaxFacts = 10
)

// GraphAugmentation commits each finished turn to the knowledge graph as two
// episodes, one per speaker, grouped by thread id.
type GraphAugmentation struct {
	gateway *graph.Gateway
	pending *pendingTurns
	logger  *zap.Logger
}

var _ agent.Middleware = (*GraphAugmentation)(nil)

func NewGraphAugmentation(g *graph.Gateway, logger *zap.Logger) *GraphAugmentation {
	return &GraphAugmentation{
		gateway: g,
		pending: newPendingTurns(),
		logger:  logger,
	}
}

func (m *GraphAugmentation) Name() string { return "graph_augmentation" }

func (m *GraphAugmentation) BeforeModel(ctx context.Context, state *agent.State) error {
	msg, err := state.LatestMessage(chat.RoleHuman)
	if err != nil {
		return fmt.Errorf("graph augmentation: %w", err)
	}
	m.pending.put(state.ThreadID(), msg)
	return nil
}

func (m *GraphAugmentation) AfterModel(ctx context.Context, state *agent.State) error {
	userMsg, ok := m.pending.take(state.ThreadID())
	if !ok {
		m.logger.Warn("no pending user message, skipping commit",
			zap.String("thread_id", state.ThreadID()))
		return nil
	}
	if userMsg.Role != chat.RoleHuman {
		return fmt.Errorf("pending message role %q: %w", userMsg.Role, agent.ErrTypeMismatch)
	}

	aiMsg, err := state.LatestMessage(chat.RoleAI)
	if err != nil {
		return fmt.Errorf("graph augmentation: %w", err)
	}

	threadID := state.ThreadID()
	if err := m.gateway.AddEpisode(ctx, threadID, "User Message",
		chat.EnsureText(userMsg, m.logger), "conversation turn", true); err != nil {
		return err
	}
	return m.gateway.AddEpisode(ctx, threadID, "AI Message",
		chat.EnsureText(aiMsg, m.logger), "conversation turn", true)
}

// GraphRetrieval injects entity and fact search results from the knowledge
// graph before the model call, scoped to the thread's group.
type GraphRetrieval struct {
	gateway *graph.Gateway
	builder *ContextBuilder
	logger  *zap.Logger
}

var _ agent.Middleware = (*GraphRetrieval)(nil)

func NewGraphRetrieval(g *graph.Gateway, b *ContextBuilder, logger *zap.Logger) *GraphRetrieval {
	return &GraphRetrieval{gateway: g, builder: b, logger: logger}
}

func (m *GraphRetrieval) Name() string { return "graph_retrieval" }

func (m *GraphRetrieval) BeforeModel(ctx context.Context, state *agent.State) error {
	section, err := graphSection(ctx, m.gateway, m.builder, state, m.logger)
	if err != nil {
		return err
	}
	injectContext(state, m.builder.Wrap(section), m.logger)
	return nil
}

func (m *GraphRetrieval) AfterModel(ctx context.Context, state *agent.State) error {
	return nil
}

// graphSection queries nodes and facts for the latest user message. Shared
// with the hybrid retrieval path.
func graphSection(ctx context.Context, g *graph.Gateway, b *ContextBuilder, state *agent.State, logger *zap.Logger) (string, error) {
	msg, err := state.LatestMessage(chat.RoleHuman)
	if err != nil {
		return "", fmt.Errorf("graph retrieval: %w", err)
	}
	query := chat.EnsureText(msg, logger)
	threadID := state.ThreadID()

	nodes, err := g.SearchNodes(ctx, threadID, query, DefaultMaxNodes)
	if err != nil {
		return "", err
	}
	facts, err := g.SearchFacts(ctx, threadID, query, DefaultMaxFacts)
	if err != nil {
		return "", err
	}

	section := b.GraphSection(nodes, facts)
	if section == "" {
		logger.Debug("graph returned no results", zap.String("thread_id", threadID))
	}
	return section, nil
}
