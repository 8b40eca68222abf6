// Package evalcmder provides the eval command for LongMemEval runs.
package evalcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/config"
	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/longmemeval"
	"github.com/membench/membench/pkg/memagent"
)

type evalCommander struct {
	dataset string
	output  string
	backend string
	subset  string

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const evalLongDesc string = `Run the LongMemEval benchmark against a memory backend.

Each dataset question carries a haystack of dated chat sessions. The haystack
is replayed as history, the question is asked, and the agent's hypothesis is
appended to the predictions file as JSONL. Runs are resumable: questions
already present in the output file are skipped, so an interrupted run can be
restarted with the same arguments.

A run can be restricted to specific questions with --subset, a file of
question ids (one per line). This is useful for re-running only the questions
a previous evaluation got wrong.

Example:
  membench eval --dataset data/longmemeval_oracle.json --backend vector
  membench eval --dataset data/longmemeval_s.json --output preds.jsonl --backend hybrid
  membench eval --dataset data/longmemeval_s.json --subset wrong_ids.txt --backend vector`

const evalShortDesc string = "Run the LongMemEval benchmark"

func NewEvalCmd() *cobra.Command {
	cmder := &evalCommander{}

	cmd := &cobra.Command{
		Use:   "eval",
		Short: evalShortDesc,
		Long:  evalLongDesc,
		Args:  cobra.NoArgs,
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
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.dataset, "dataset", "", "Path to the LongMemEval dataset JSON (required)")
	cmd.Flags().StringVarP(&cmder.output, "output", "o", "predictions.jsonl", "Predictions output path (JSONL, appended)")
	cmd.Flags().StringVarP(&cmder.backend, "backend", "b", "baseline", "Memory backend to evaluate")
	cmd.Flags().StringVar(&cmder.subset, "subset", "", "File of question ids to run, one per line (optional)")
	_ = cmd.MarkFlagRequired("dataset")

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

func (c *evalCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	backend, err := memagent.ParseBackend(c.backend)
	if err != nil {
		return err
	}

	questions, err := longmemeval.LoadDataset(c.dataset)
	if err != nil {
		return err
	}

	if c.subset != "" {
		ids, err := longmemeval.LoadIDFile(c.subset)
		if err != nil {
			return err
		}
		questions = longmemeval.FilterQuestions(questions, ids)
		c.logger.Info("restricted run to subset",
			zap.String("subset", c.subset),
			zap.Int("questions", len(questions)))
	}

	ctx := context.Background()
	agent, err := memagent.FromConfig(ctx, c.cfg, backend, c.logger)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	runner := longmemeval.NewRunner(agent, c.output, c.logger)
	if err := runner.Run(ctx, questions); err != nil {
		return err
	}

	fmt.Printf("predictions written to %s\n", c.output)
	return nil
}
