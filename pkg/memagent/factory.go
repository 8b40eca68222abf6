package memagent

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/config"
	"github.com/membench/membench/pkg/embeddings"
	"github.com/membench/membench/pkg/embeddings/ollama"
	"github.com/membench/membench/pkg/graph"
	"github.com/membench/membench/pkg/llm"
	"github.com/membench/membench/pkg/llm/anthropic"
	"github.com/membench/membench/pkg/middleware"
	"github.com/membench/membench/pkg/rerank"
	"github.com/membench/membench/pkg/store"
	storeutils "github.com/membench/membench/pkg/store/utils"
)

// Backend names a memory strategy.
type Backend string

const (
	BackendBaseline Backend = "baseline"
	BackendVector   Backend = "vector"
	BackendGraph    Backend = "graph"
	BackendHybrid   Backend = "hybrid"
)

// ParseBackend validates a backend name from config or flags.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendBaseline, BackendVector, BackendGraph, BackendHybrid:
		return Backend(s), nil
	default:
		return "", fmt.Errorf("unknown backend %q (want baseline, vector, graph or hybrid)", s)
	}
}

// FromConfig builds an agent for the chosen backend out of the resolved
// configuration. Each backend keeps its vector data under its own
// subdirectory so strategies never share stored turns.
func FromConfig(ctx context.Context, cfg *config.Config, backend Backend, logger *zap.Logger) (*Agent, error) {
	model, err := newModel(cfg, logger)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendBaseline:
		return NewBaseline(model, logger)

	case BackendVector:
		s, err := OpenTurnStore(cfg, backend, logger)
		if err != nil {
			return nil, err
		}
		return NewVector(model, s, rerank.NewLexical(logger), retrievalTuning(cfg), logger)

	case BackendGraph:
		g := graph.New(graph.Config{Endpoint: cfg.Graph.Endpoint}, logger)
		return NewGraph(ctx, model, g, logger)

	case BackendHybrid:
		s, err := OpenTurnStore(cfg, backend, logger)
		if err != nil {
			return nil, err
		}
		g := graph.New(graph.Config{Endpoint: cfg.Graph.Endpoint}, logger)
		return NewHybrid(ctx, model, g, s, rerank.NewLexical(logger), retrievalTuning(cfg), logger)

	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func retrievalTuning(cfg *config.Config) middleware.RetrievalTuning {
	return middleware.RetrievalTuning{
		Candidates: cfg.Retrieval.Candidates,
		TopN:       cfg.Retrieval.RerankTopN,
	}
}

func newModel(cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			APIKey:    cfg.Model.APIKey,
			Model:     cfg.Model.Name,
			MaxTokens: int64(cfg.Model.MaxTokens),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
}

func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return ollama.NewEmbedder(ollama.Config{
			BaseURL: cfg.Embedding.Target,
			Model:   cfg.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

// OpenTurnStore opens the chosen backend's vector store without building the
// rest of the agent. Used by commands that only inspect stored memory.
func OpenTurnStore(cfg *config.Config, backend Backend, logger *zap.Logger) (store.TurnStore, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	return storeutils.NewTurnStore(&storeutils.NewTurnStoreOpts{
		Driver:     cfg.Store.Driver,
		Path:       filepath.Join(cfg.Store.Path, string(backend)),
		Dimensions: cfg.Embedding.Dimensions,
		Embedder:   embedder,
		Logger:     logger,
	})
}
