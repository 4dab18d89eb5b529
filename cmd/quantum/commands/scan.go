package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/pipeline"
)

// scanCmd runs one discovery cycle and exits
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle and exit",
	Long: `Runs one full cycle: discover, drop known urls, enrich, score, persist, alert.

Exits non-zero when the cycle aborts (store failure, cancellation, timeout).

Example:
  go run ./cmd/quantum scan
  go run ./cmd/quantum scan --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, pipeline.ModeScan)
	},
}

// rescanCmd re-scores every stored project
var rescanCmd = &cobra.Command{
	Use:   "rescan",
	Short: "Re-enrich and re-score every stored project",
	Long: `Refreshes signals and decisions for projects already in the store.
A project is alerted again only when it reaches a verdict it was never alerted for.

Example:
  go run ./cmd/quantum rescan --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, pipeline.ModeRescan)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(rescanCmd)
}

func runOnce(cmd *cobra.Command, mode string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rc := pipeline.RunConfig{DryRun: dryRun}

	var (
		m      *contracts.CycleMetrics
		runErr error
	)
	switch mode {
	case pipeline.ModeRescan:
		m, runErr = a.orch.RescanKnown(ctx, rc)
	default:
		m, runErr = a.orch.RunCycle(ctx, rc)
	}

	if m != nil {
		PrintCycleSummary(cmd.OutOrStdout(), m)
	}
	if runErr != nil {
		return fmt.Errorf("%s cycle: %w", mode, runErr)
	}
	return nil
}
