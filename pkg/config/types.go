// Package config holds membench configuration: defaults, an optional config
// file, environment variables and CLI flags, resolved through viper in that
// precedence order (flags highest).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the resolved membench configuration.
type Config struct {
	Debug bool `mapstructure:"debug"`

	Model     ModelConfig     `mapstructure:"model"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Store     StoreConfig     `mapstructure:"store"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
}

// ModelConfig holds chat model settings.
type ModelConfig struct {
	Provider  string `mapstructure:"provider"`
	Name      string `mapstructure:"name"`
	MaxTokens int    `mapstructure:"max_tokens"`
	// APIKey is normally supplied via MEMBENCH_MODEL_API_KEY, never the
	// config file.
	APIKey string `mapstructure:"api_key"`
}

// GraphConfig holds knowledge graph service settings.
type GraphConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// StoreConfig holds vector store settings.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Target     string `mapstructure:"target"`
	Model      string `mapstructure:"model"`
	Dimensions uint   `mapstructure:"dimensions"`
}

// RetrievalConfig holds retrieval pipeline knobs.
type RetrievalConfig struct {
	// Candidates is how many raw results vector search pulls.
	Candidates int `mapstructure:"candidates"`
	// RerankTopN is how many candidates survive reranking.
	RerankTopN int `mapstructure:"rerank_top_n"`
}

// FromViper unmarshals the resolved viper state into a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &c, nil
}
