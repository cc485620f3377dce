package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blackoak/boardroom/internal/observability"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "boardroom",
	Short: "CEO orchestration engine",
	Long: `Boardroom turns a natural-language strategic goal into a reviewed
executive plan.

A submitted goal is parsed, decomposed into department sub-tasks, and
executed by specialist evaluators running in dependency waves against a
consistent snapshot of company state. Conflicting recommendations are
detected and resolved (or escalated), the governance gate checks the plan
against cost, confidence, and headcount thresholds, and every step lands in
a hash-chained audit trail.

Examples:
  boardroom run "Improve customer retention by 15% without increasing CAC"
  boardroom run --approve "Grow revenue by 20%, budget $1.2M"
  boardroom audit 3f2a91bc
  boardroom state`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		observability.InitLogger("boardroom")
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
