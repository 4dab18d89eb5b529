package scoringconfig

import (
	"fmt"
	"math"
)

// ValidationError aborts startup
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a recommended-range violation (logged only)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Thresholds ===
	if err := validateRange(cfg.Thresholds.GoScore, 0, 100); err != nil {
		return ValidationError{"thresholds.go_score", err.Error()}
	}
	if err := validateRange(cfg.Thresholds.ReviewScore, 0, 100); err != nil {
		return ValidationError{"thresholds.review_score", err.Error()}
	}
	if cfg.Thresholds.ReviewScore > cfg.Thresholds.GoScore {
		return ValidationError{"thresholds", "review_score must be <= go_score"}
	}

	// === Weights ===
	features := map[string]Feature{
		"weights.liquidity_ratio":      cfg.Weights.LiquidityRatio,
		"weights.whale_concentration":  cfg.Weights.WhaleConcentration,
		"weights.audit_score":          cfg.Weights.AuditScore,
		"weights.growth_momentum":      cfg.Weights.GrowthMomentum,
		"weights.trading_volume_ratio": cfg.Weights.TradingVolumeRatio,
		"weights.smart_money_index":    cfg.Weights.SmartMoneyIndex,
	}
	for field, f := range features {
		if math.IsNaN(f.Points) || f.Points < 0 {
			return ValidationError{field + ".points", "must be >= 0"}
		}
		if math.IsNaN(f.Scale) || f.Scale <= 0 {
			return ValidationError{field + ".scale", "must be > 0"}
		}
	}

	return nil
}

// CheckWarnings returns recommended-range violations
func CheckWarnings(cfg *Config) []Warning {
	var warnings []Warning

	if total := cfg.Weights.TotalPoints(); total > 100+1e-6 {
		warnings = append(warnings, Warning{
			Code:    "WEIGHTS_EXCEED_100",
			Message: fmt.Sprintf("weights sum to %.2f; scores are clamped to [0,100]", total),
		})
	}
	if total := cfg.Weights.TotalPoints(); total < cfg.Thresholds.GoScore {
		warnings = append(warnings, Warning{
			Code:    "GO_SCORE_UNREACHABLE",
			Message: fmt.Sprintf("weights sum to %.2f, below go_score %.2f", total, cfg.Thresholds.GoScore),
		})
	}
	if cfg.Thresholds.GoScore-cfg.Thresholds.ReviewScore < 10 {
		warnings = append(warnings, Warning{
			Code:    "NARROW_REVIEW_BAND",
			Message: "review band narrower than 10 points",
		})
	}

	return warnings
}

func validateRange(v, min, max float64) error {
	if math.IsNaN(v) || v < min || v > max {
		return fmt.Errorf("must be in [%g, %g]", min, max)
	}
	return nil
}
