package middleware

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/agent"
	"github.com/membench/membench/pkg/chat"
	"github.com/membench/membench/pkg/rerank"
	"github.com/membench/membench/pkg/store"
)

// SearchCandidates is how many raw results the vector search pulls before
// reranking narrows them down.
const SearchCandidates = 20

// RetrievalTuning sizes the search-rerank pipeline. Zero values fall back to
// SearchCandidates and rerank.DefaultTopN.
type RetrievalTuning struct {
	// Candidates is how many raw results the vector search pulls.
	Candidates int

	// TopN is how many candidates survive reranking.
	TopN int
}

func (t RetrievalTuning) withDefaults() RetrievalTuning {
	if t.Candidates <= 0 {
		t.Candidates = SearchCandidates
	}
	if t.TopN <= 0 {
		t.TopN = rerank.DefaultTopN
	}
	return t
}

// VectorAugmentation commits each finished turn to the vector store. The
// user message is captured before the model call; the pair is written only
// after the reply exists, so a turn can never retrieve itself.
type VectorAugmentation struct {
	store   store.TurnStore
	pending *pendingTurns
	logger  *zap.Logger
}

var _ agent.Middleware = (*VectorAugmentation)(nil)

func NewVectorAugmentation(s store.TurnStore, logger *zap.Logger) *VectorAugmentation {
	return &VectorAugmentation{
		store:   s,
		pending: newPendingTurns(),
		logger:  logger,
	}
}

func (m *VectorAugmentation) Name() string { return "vector_augmentation" }

func (m *VectorAugmentation) BeforeModel(ctx context.Context, state *agent.State) error {
	msg, err := state.LatestMessage(chat.RoleHuman)
	if err != nil {
		return fmt.Errorf("vector augmentation: %w", err)
	}
	m.pending.put(state.ThreadID(), msg)
	return nil
}

func (m *VectorAugmentation) AfterModel(ctx context.Context, state *agent.State) error {
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
		return fmt.Errorf("vector augmentation: %w", err)
	}

	return m.store.AddTurn(ctx,
		chat.EnsureText(userMsg, m.logger),
		chat.EnsureText(aiMsg, m.logger),
		map[string]string{store.MetaThreadID: state.ThreadID()},
	)
}

// VectorRetrieval injects similar past conversations before the model call.
// Raw search results are reranked lexically and only the top few surface.
type VectorRetrieval struct {
	store    store.TurnStore
	reranker rerank.Reranker
	builder  *ContextBuilder
	tuning   RetrievalTuning
	logger   *zap.Logger
}

var _ agent.Middleware = (*VectorRetrieval)(nil)

func NewVectorRetrieval(s store.TurnStore, r rerank.Reranker, b *ContextBuilder, tuning RetrievalTuning, logger *zap.Logger) *VectorRetrieval {
	return &VectorRetrieval{store: s, reranker: r, builder: b, tuning: tuning.withDefaults(), logger: logger}
}

func (m *VectorRetrieval) Name() string { return "vector_retrieval" }

func (m *VectorRetrieval) BeforeModel(ctx context.Context, state *agent.State) error {
	section, err := m.vectorSection(ctx, state)
	if err != nil {
		return err
	}
	injectContext(state, m.builder.Wrap(section), m.logger)
	return nil
}

func (m *VectorRetrieval) AfterModel(ctx context.Context, state *agent.State) error {
	return nil
}

// vectorSection runs the search-rerank-format pipeline for the latest user
// message. An empty store yields an empty section, not an error.
func (m *VectorRetrieval) vectorSection(ctx context.Context, state *agent.State) (string, error) {
	msg, err := state.LatestMessage(chat.RoleHuman)
	if err != nil {
		return "", fmt.Errorf("vector retrieval: %w", err)
	}
	query := chat.EnsureText(msg, m.logger)

	candidates, err := m.store.Search(ctx, query, m.tuning.Candidates)
	if err != nil {
		return "", fmt.Errorf("vector retrieval: %w", err)
	}
	if len(candidates) == 0 {
		m.logger.Debug("no stored conversations to retrieve",
			zap.String("thread_id", state.ThreadID()))
		return "", nil
	}

	reranked := m.reranker.Rerank(candidates, query, m.tuning.TopN)
	return m.builder.VectorSection(reranked), nil
}

// injectContext appends the rendered context as a system message. Nothing is
// appended when the block is empty.
func injectContext(state *agent.State, block string, logger *zap.Logger) {
	if block == "" {
		return
	}
	state.Append(chat.NewTextMessage(chat.RoleSystem, block))
	logger.Debug("injected retrieved context",
		zap.String("thread_id", state.ThreadID()),
		zap.Int("chars", len(block)))
}
