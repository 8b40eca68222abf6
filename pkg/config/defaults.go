package config

const (
	defaultModelProvider  = "anthropic"
	defaultModelMaxTokens = 1024

	defaultGraphEndpoint = "http://localhost:8000/mcp"

	defaultStoreDriver = "chromem"
	defaultStorePath   = "membench_data"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultRetrievalCandidates = 20
	defaultRetrievalRerankTopN = 5
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:  defaultModelProvider,
			MaxTokens: defaultModelMaxTokens,
		},
		Graph: GraphConfig{
			Endpoint: defaultGraphEndpoint,
		},
		Store: StoreConfig{
			Driver: defaultStoreDriver,
			Path:   defaultStorePath,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		Retrieval: RetrievalConfig{
			Candidates: defaultRetrievalCandidates,
			RerankTopN: defaultRetrievalRerankTopN,
		},
	}
}
