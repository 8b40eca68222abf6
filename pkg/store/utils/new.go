// Package storeutils constructs a TurnStore from provider configuration.
package storeutils

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/membench/membench/pkg/embeddings"
	"github.com/membench/membench/pkg/store"
	"github.com/membench/membench/pkg/store/chromem"
	"github.com/membench/membench/pkg/store/sqlitevec"
)

type NewTurnStoreOpts struct {
	Driver     string
	Path       string
	Dimensions uint
	Embedder   embeddings.Embedder
	Logger     *zap.Logger
}

func NewTurnStore(o *NewTurnStoreOpts) (store.TurnStore, error) {
	if err := os.MkdirAll(o.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating store path: %w", err)
	}
	switch o.Driver {
	case "chromem":
		return chromem.New(chromem.Config{
			Path: o.Path,
		}, o.Embedder, o.Logger)
	case "sqlitevec":
		return sqlitevec.New(sqlitevec.Config{
			DBPath:     filepath.Join(o.Path, "turns.db"),
			Dimensions: o.Dimensions,
		}, o.Embedder, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store driver: %s", o.Driver)
	}
}
