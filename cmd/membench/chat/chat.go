// Package chatcmder provides the chat command for running single turns.
package chatcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/cliui"
	"github.com/membench/membench/pkg/config"
	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/memagent"
)

type chatCommander struct {
	message  string
	threadID string
	backend  string

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const chatLongDesc string = `Run a single conversation turn against a memory backend.

The message is sent to the agent on the given thread, memory middleware for
the chosen backend runs around the model call, and the reply is printed.
Long-term memory persists between invocations, so consecutive chat calls on
the same thread build up retrievable history.

Example:
  membench chat "My favourite colour is teal" --backend vector
  membench chat "What is my favourite colour?" --backend vector
  membench chat "hello" --backend graph --thread demo`

const chatShortDesc string = "Run a conversation turn"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagModelName,
				config.FlagGraphEndpoint,
				config.FlagStoreDriver,
				config.FlagStorePath,
				config.FlagEmbeddingProv,
				config.FlagEmbeddingTgt,
				config.FlagEmbeddingModel,
				config.FlagEmbeddingDims,
			})

			cmder.cfg, err = config.FromViper(v)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.message = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.backend, "backend", "b", "baseline", "Memory backend (baseline, vector, graph, hybrid)")
	cmd.Flags().StringVarP(&cmder.threadID, "thread", "t", "default", "Conversation thread id")

	var modelName, graphEndpoint, storeDriver, storePath, embProv, embTgt, embModel string
	var embDims uint
	config.AddStringFlag(cmd, config.Flags, config.FlagModelName, &modelName)
	config.AddStringFlag(cmd, config.Flags, config.FlagGraphEndpoint, &graphEndpoint)
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreDriver, &storeDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorePath, &storePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &embProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &embTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &embModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &embDims)

	return cmd
}

func (c *chatCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	backend, err := memagent.ParseBackend(c.backend)
	if err != nil {
		return err
	}

	ctx := context.Background()
	agent, err := memagent.FromConfig(ctx, c.cfg, backend, c.logger)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	reply, err := agent.Run(ctx, c.message, c.threadID)
	if reply == "" && err != nil {
		return err
	}
	if err != nil {
		// The reply is valid; a memory commit failed after the fact.
		c.logger.Error("memory commit failed", zap.Error(err))
	}

	rendered, err := cliui.RenderMarkdown(reply)
	if err != nil {
		fmt.Println(reply)
		return nil
	}
	fmt.Print(rendered)
	return nil
}
