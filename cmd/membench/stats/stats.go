// Package statscmder provides the stats command for inspecting stored memory.
package statscmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/config"
	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/memagent"
)

type statsCommander struct {
	backend string

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const statsLongDesc string = `Show how many conversation turns a backend has stored.

Example:
  membench stats --backend vector
  membench stats --backend hybrid`

const statsShortDesc string = "Show stored turn counts"

func NewStatsCmd() *cobra.Command {
	cmder := &statsCommander{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: statsShortDesc,
		Long:  statsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
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

	cmd.Flags().StringVarP(&cmder.backend, "backend", "b", "vector", "Memory backend to inspect")

	var storeDriver, storePath string
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreDriver, &storeDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorePath, &storePath)

	return cmd
}

func (c *statsCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	backend, err := memagent.ParseBackend(c.backend)
	if err != nil {
		return err
	}

	turnStore, err := memagent.OpenTurnStore(c.cfg, backend, c.logger)
	if err != nil {
		return err
	}
	defer func() { _ = turnStore.Close() }()

	count, err := turnStore.Count(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("backend: %s\ntotal_conversation_turns: %d\n", backend, count)
	return nil
}
