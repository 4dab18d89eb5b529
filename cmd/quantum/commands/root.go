package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dryRun  bool
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quantum",
	Short: "Quantum - crypto project discovery and triage",
	Long: `Quantum Unified CLI

Discovers early-stage crypto projects from launchpads, calendars and DEX feeds,
enriches them with market and safety data, scores them and alerts on the best.

Usage:
  go run ./cmd/quantum [command]

Examples:
  go run ./cmd/quantum scan --dry-run
  go run ./cmd/quantum serve
  go run ./cmd/quantum projects --name pepe
  go run ./cmd/quantum sources`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "score and persist but never send alerts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
