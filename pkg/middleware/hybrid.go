package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/agent"
	"github.com/membench/membench/pkg/graph"
	"github.com/membench/membench/pkg/rerank"
	"github.com/membench/membench/pkg/store"
)

// HybridRetrieval queries the knowledge graph and the vector store
// independently and assembles one context block, graph section first. A
// backend with nothing to contribute is simply absent from the block.
type HybridRetrieval struct {
	gateway *graph.Gateway
	vector  *VectorRetrieval
	builder *ContextBuilder
	logger  *zap.Logger
}

var _ agent.Middleware = (*HybridRetrieval)(nil)

func NewHybridRetrieval(g *graph.Gateway, s store.TurnStore, r rerank.Reranker, b *ContextBuilder, tuning RetrievalTuning, logger *zap.Logger) *HybridRetrieval {
	return &HybridRetrieval{
		gateway: g,
		vector:  NewVectorRetrieval(s, r, b, tuning, logger),
		builder: b,
		logger:  logger,
	}
}

func (m *HybridRetrieval) Name() string { return "hybrid_retrieval" }

func (m *HybridRetrieval) BeforeModel(ctx context.Context, state *agent.State) error {
	graphSec, err := graphSection(ctx, m.gateway, m.builder, state, m.logger)
	if err != nil {
		return err
	}
	vectorSec, err := m.vector.vectorSection(ctx, state)
	if err != nil {
		return err
	}
	injectContext(state, m.builder.Wrap(graphSec, vectorSec), m.logger)
	return nil
}

func (m *HybridRetrieval) AfterModel(ctx context.Context, state *agent.State) error {
	return nil
}
