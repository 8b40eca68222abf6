// Package searchcmder provides the search command for querying stored turns.
package searchcmder

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/membench/membench/pkg/config"
	"github.com/membench/membench/pkg/logger"
	"github.com/membench/membench/pkg/memagent"
	"github.com/membench/membench/pkg/store"
	"github.com/membench/membench/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type searchCommander struct {
	query   string
	topK    int
	backend string

	cfg    *config.Config
	debug  bool
	logger *zap.Logger
}

const searchLongDesc string = `Search stored conversation turns directly, outside any model turn.

Queries the backend's vector store and prints the most similar past
conversations with scores and stored metadata. Only backends with a vector
store (vector, hybrid) have anything to search.

Example:
  membench search "favourite colour"
  membench search "travel plans" --backend hybrid --top 10`

const searchShortDesc string = "Search stored conversation turns"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
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
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 5, "Number of results to return")
	cmd.Flags().StringVarP(&cmder.backend, "backend", "b", "vector", "Memory backend whose store to search")

	var storeDriver, storePath, embProv, embTgt, embModel string
	var embDims uint
	config.AddStringFlag(cmd, config.Flags, config.FlagStoreDriver, &storeDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorePath, &storePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &embProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &embTgt)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &embModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &embDims)

	return cmd
}

func (c *searchCommander) run() error {
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

	ctx := context.Background()
	results, err := turnStore.Search(ctx, c.query, c.topK)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		idStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, result := range results {
		printResult(i+1, result)
	}

	return nil
}

func printResult(rank int, result store.SearchResult) {
	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		idStyle.Render(result.ID),
	)

	preview := utils.Truncate(strings.ReplaceAll(result.Content, "\n", " "), 117)
	fmt.Printf("  %s\n", previewStyle.Render(preview))

	if ts := result.Metadata[store.MetaTimestamp]; ts != "" {
		fmt.Printf("  %s\n", dimStyle.Render(ts))
	}
	fmt.Println()
}
