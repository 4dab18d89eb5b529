package notify

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/wonny/quantum/internal/contracts"
)

var verdictBadge = map[contracts.Verdict]string{
	contracts.VerdictAccept: "🟢 ACCEPT",
	contracts.VerdictReview: "🟡 REVIEW",
	contracts.VerdictReject: "🔴 REJECT",
}

// Format renders the alert text of a record (Telegram HTML)
func Format(rec *contracts.ProjectRecord) string {
	var b strings.Builder
	d := rec.Decision

	badge := verdictBadge[d.Verdict]
	if badge == "" {
		badge = string(d.Verdict)
	}
	fmt.Fprintf(&b, "<b>%s</b> | %s\n", badge, html.EscapeString(rec.Candidate.DisplayName()))
	fmt.Fprintf(&b, "Score: <b>%.1f</b>/100 | Risk: %s | Est. %s\n", d.Score, d.Risk, d.EstimatedMultiple)
	fmt.Fprintf(&b, "Source: %s\n", html.EscapeString(rec.Source))

	if rec.Chain != "" || rec.ContractAddress != "" {
		fmt.Fprintf(&b, "Chain: %s", html.EscapeString(rec.Chain))
		if rec.ContractAddress != "" {
			fmt.Fprintf(&b, " | <code>%s</code>", html.EscapeString(rec.ContractAddress))
		}
		b.WriteString("\n")
	}

	s := rec.Signals
	var market []string
	if s.Has(contracts.SigMarketCap) {
		market = append(market, "MC "+compactUSD(s.Get(contracts.SigMarketCap)))
	}
	if s.Has(contracts.SigLiquidityUSD) {
		market = append(market, "Liq "+compactUSD(s.Get(contracts.SigLiquidityUSD)))
	}
	if s.Has(contracts.SigTradingVolume) {
		market = append(market, "Vol24h "+compactUSD(s.Get(contracts.SigTradingVolume)))
	}
	if len(market) > 0 {
		b.WriteString(strings.Join(market, " | ") + "\n")
	}

	if len(rec.Flags) > 0 {
		flags := make([]string, len(rec.Flags))
		for i, f := range rec.Flags {
			flags[i] = string(f)
		}
		fmt.Fprintf(&b, "Flags: %s\n", strings.Join(flags, ", "))
	}

	if len(d.Breakdown) > 0 {
		names := make([]string, 0, len(d.Breakdown))
		for name := range d.Breakdown {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s %.1f", name, d.Breakdown[name]))
		}
		fmt.Fprintf(&b, "<i>%s</i>\n", strings.Join(parts, ", "))
	}

	link := html.EscapeString(rec.URL)
	fmt.Fprintf(&b, "<a href=\"%s\">%s</a>", link, link)
	return b.String()
}

// compactUSD renders 1234567 as $1.23M
func compactUSD(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.1fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
