package s3_decision

import (
	"fmt"
	"math"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/scoringconfig"
)

const (
	lowRiskAbove = 80.0

	multipleFloor = 65.0
	multipleSpan  = 35.0
	multipleMin   = 10.0
	multipleMax   = 1000.0
)

// Engine turns ratios into a decision
// ⭐ SSOT: scoring and verdict logic live here only. Pure, no I/O.
type Engine struct {
	cfg *scoringconfig.Config
}

// New creates an engine; nil cfg means defaults
func New(cfg *scoringconfig.Config) *Engine {
	if cfg == nil {
		cfg = scoringconfig.Default()
	}
	return &Engine{cfg: cfg}
}

// Config returns the active scoring model
func (e *Engine) Config() *scoringconfig.Config {
	return e.cfg
}

// Decide computes score, verdict, risk and estimated multiple
func (e *Engine) Decide(r contracts.Ratios, flags contracts.Flags) contracts.Decision {
	w := e.cfg.Weights
	parts := []struct {
		name  string
		value float64
	}{
		{"liquidity_ratio", direct(r.LiquidityRatio, w.LiquidityRatio)},
		{"whale_concentration", inverse(r.WhaleConcentration, w.WhaleConcentration)},
		{"audit_score", direct(r.AuditScore, w.AuditScore)},
		{"growth_momentum", direct(r.GrowthMomentum, w.GrowthMomentum)},
		{"trading_volume_ratio", direct(r.TradingVolumeRatio, w.TradingVolumeRatio)},
		{"smart_money_index", direct(r.SmartMoneyIndex, w.SmartMoneyIndex)},
	}

	// fixed summation order keeps the score bit-for-bit reproducible
	score := 0.0
	breakdown := make(map[string]float64, len(parts))
	for _, p := range parts {
		score += p.value
		breakdown[p.name] = p.value
	}
	score = clampScore(score)

	if flags.Has(contracts.FlagScam) {
		score = 0
	}

	verdict := e.verdict(score)
	return contracts.Decision{
		Score:             score,
		Verdict:           verdict,
		Risk:              risk(score, verdict),
		EstimatedMultiple: multiple(score, verdict),
		Breakdown:         breakdown,
	}
}

func (e *Engine) verdict(score float64) contracts.Verdict {
	switch {
	case score >= e.cfg.Thresholds.GoScore:
		return contracts.VerdictAccept
	case score >= e.cfg.Thresholds.ReviewScore:
		return contracts.VerdictReview
	default:
		return contracts.VerdictReject
	}
}

func risk(score float64, v contracts.Verdict) contracts.Risk {
	switch {
	case score > lowRiskAbove:
		return contracts.RiskLow
	case v == contracts.VerdictAccept:
		return contracts.RiskMedium
	default:
		return contracts.RiskHigh
	}
}

// multiple maps an ACCEPT score linearly from 65..100 onto x10..x1000, never below x10
func multiple(score float64, v contracts.Verdict) string {
	if v != contracts.VerdictAccept {
		return "x0"
	}
	x := math.Round(((score-multipleFloor)/multipleSpan)*(multipleMax-multipleMin) + multipleMin)
	// a go_score below the floor must not render a negative multiple
	x = math.Max(x, multipleMin)
	return fmt.Sprintf("x%d", int64(x))
}

func direct(x float64, f scoringconfig.Feature) float64 {
	return f.Points * math.Min(finite(x)/f.Scale, 1)
}

func inverse(x float64, f scoringconfig.Feature) float64 {
	return f.Points * math.Max(0, 1-finite(x)/f.Scale)
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
