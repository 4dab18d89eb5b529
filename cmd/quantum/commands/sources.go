package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/quantum/internal/s0_discovery"
	"github.com/wonny/quantum/pkg/httputil"
)

// sourcesCmd lists the enabled discovery sources
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List enabled discovery sources",
	Long: `Prints the sources a scan would query, in registration order.
SOURCES narrows the list; LunarCrush appears by default only with LUNARCRUSH_API_KEY set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadBase()
		if err != nil {
			return err
		}

		names := s0_discovery.NewRegistry(cfg, httputil.New(cfg, log), log).Names()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Enabled sources (%d):\n", len(names))
		for _, n := range names {
			fmt.Fprintf(out, "  - %s\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
