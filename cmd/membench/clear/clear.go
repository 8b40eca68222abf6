// Package clearcmder provides the clear command for wiping backend memory.
package clearcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/cliui"
	"github.com/membench/membench/pkg/config"
	"github.com/membench/membench/pkg/graph"
	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/memagent"
)

type clearCommander struct {
	backend string

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const clearLongDesc string = `Wipe all long-term memory held by a backend.

For vector and hybrid backends this deletes every stored conversation turn.
For graph and hybrid backends this clears the knowledge graph's default
group. This cannot be undone.

Example:
  membench clear --backend vector
  membench clear --backend hybrid`

const clearShortDesc string = "Wipe a backend's memory"

func NewClearCmd() *cobra.Command {
	cmder := &clearCommander{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: clearShortDesc,
		Long:  clearLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagGraphEndpoint,
				config.FlagStoreDriver,
				config.FlagStorePath,
			})

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.backend, "backend", "b", "vector", "Memory backend to clear")

	var graphEndpoint, storeDriver, storePath string
	config.AddStringFlag(cmd, config.Flags, config.FlagGraphEndpoint, &graphEndpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreDriver, &storeDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorePath, &storePath)

	return cmd
}

func (c *clearCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	backend, err := memagent.ParseBackend(c.backend)
	if err != nil {
		return err
	}
	ctx := context.Background()

	switch backend {
	case memagent.BackendBaseline:
		fmt.Println("baseline backend holds no long-term memory")
		return nil

	case memagent.BackendVector:
		return c.clearStore(ctx, backend)

	case memagent.BackendGraph:
		return c.clearGraph(ctx)

	case memagent.BackendHybrid:
		if err := c.clearStore(ctx, backend); err != nil {
			return err
		}
		return c.clearGraph(ctx)
	}
	return nil
}

func (c *clearCommander) clearStore(ctx context.Context, backend memagent.Backend) error {
	return cliui.Step(os.Stdout, fmt.Sprintf("clearing %s vector store", backend), func() error {
		turnStore, err := memagent.OpenTurnStore(c.cfg, backend, c.logger)
		if err != nil {
			return err
		}
		defer func() { _ = turnStore.Close() }()

		return turnStore.Clear(ctx)
	})
}

func (c *clearCommander) clearGraph(ctx context.Context) error {
	return cliui.Step(os.Stdout, "clearing knowledge graph", func() error {
		g := graph.New(graph.Config{Endpoint: c.cfg.Graph.Endpoint}, c.logger)
		defer func() { _ = g.Close() }()

		if err := g.Connect(ctx); err != nil {
			return err
		}
		return g.Reset(ctx, nil)
	})
}
