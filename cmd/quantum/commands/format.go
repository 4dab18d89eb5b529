package commands

import (
	"fmt"
	"io"

	"github.com/wonny/quantum/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// ═══════════════════════════════════════════════════════════

const rule = "═══════════════════════════════════════════════════════════"

// PrintCycleSummary prints the outcome of one cycle
func PrintCycleSummary(w io.Writer, m *contracts.CycleMetrics) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %s cycle %s\n", m.Mode, m.RunID)
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
	fmt.Fprintf(w, "  Discovered : %d\n", m.Discovered)
	fmt.Fprintf(w, "  New        : %d\n", m.New)
	fmt.Fprintf(w, "  Accepted   : %d\n", m.Accepted)
	fmt.Fprintf(w, "  Review     : %d\n", m.Review)
	fmt.Fprintf(w, "  Rejected   : %d\n", m.Rejected)
	fmt.Fprintf(w, "  Alerts     : %d", m.AlertsSent)
	switch {
	case m.DryRun:
		fmt.Fprint(w, " (dry run)")
	case m.AlertsSkipped:
		fmt.Fprint(w, " (notifier not configured)")
	}
	fmt.Fprintln(w)
	if m.EnrichFailures > 0 {
		fmt.Fprintf(w, "  Enrich failures : %d\n", m.EnrichFailures)
	}
	for _, se := range m.SourceErrors {
		fmt.Fprintf(w, "  ⚠️  %s: %s\n", se.Source, se.Error)
	}
	if m.ScoringVersion != "" {
		fmt.Fprintf(w, "  Scoring    : %s\n", m.ScoringVersion)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "✅ Completed in %.2fs\n", m.Duration)
}
