// Package membenchcmder
package membenchcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/membench/membench/cmd/membench/chat"
	clearcmder "github.com/membench/membench/cmd/membench/clear"
	evalcmder "github.com/membench/membench/cmd/membench/eval"
	searchcmder "github.com/membench/membench/cmd/membench/search"
	statscmder "github.com/membench/membench/cmd/membench/stats"
	versioncmder "github.com/membench/membench/cmd/membench/version"
)

const membenchLongDesc string = `Membench evaluates long-term memory strategies for conversational agents.

Talk to an agent using:
  membench chat         Run a single conversation turn against a backend
  membench eval         Run the LongMemEval benchmark

Inspect and manage stored memory using:
  membench search       Search stored conversation turns
  membench stats        Show stored turn counts
  membench clear        Wipe a backend's memory`

const membenchShortDesc string = "Membench - Memory Strategy Evaluation"

func NewMembenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "membench",
		Short: membenchShortDesc,
		Long:  membenchLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing config.yaml")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(statscmder.NewStatsCmd())
	cmd.AddCommand(clearcmder.NewClearCmd())
	cmd.AddCommand(evalcmder.NewEvalCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
