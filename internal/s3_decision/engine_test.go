package s3_decision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/scoringconfig"
)

func perfectRatios() contracts.Ratios {
	return contracts.Ratios{
		LiquidityRatio:     0.1,
		WhaleConcentration: 0,
		AuditScore:         100,
		GrowthMomentum:     0.1,
		TradingVolumeRatio: 0.05,
		SmartMoneyIndex:    100,
	}
}

func TestDecide_Scenarios(t *testing.T) {
	engine := New(nil)

	tests := []struct {
		name         string
		ratios       contracts.Ratios
		flags        contracts.Flags
		wantScore    float64
		wantVerdict  contracts.Verdict
		wantRisk     contracts.Risk
		wantMultiple string
	}{
		{
			// every feature saturated: 15+10+20+15+10+20
			name:         "all features saturated",
			ratios:       perfectRatios(),
			wantScore:    90,
			wantVerdict:  contracts.VerdictAccept,
			wantRisk:     contracts.RiskLow,
			wantMultiple: "x717",
		},
		{
			// whale_concentration = 0 is the best inverse value and still earns its 10 points
			name:         "all ratios zero",
			ratios:       contracts.Ratios{},
			wantScore:    10,
			wantVerdict:  contracts.VerdictReject,
			wantRisk:     contracts.RiskHigh,
			wantMultiple: "x0",
		},
		{
			name: "review band",
			ratios: contracts.Ratios{
				SmartMoneyIndex:    100,
				AuditScore:         100,
				LiquidityRatio:     0.1,
				WhaleConcentration: 0.4,
				GrowthMomentum:     0.1 * 10 / 15,
			},
			wantScore:    65,
			wantVerdict:  contracts.VerdictReview,
			wantRisk:     contracts.RiskHigh,
			wantMultiple: "x0",
		},
		{
			name:         "scam flag zeroes a perfect project",
			ratios:       perfectRatios(),
			flags:        contracts.Flags{contracts.FlagScam},
			wantScore:    0,
			wantVerdict:  contracts.VerdictReject,
			wantRisk:     contracts.RiskHigh,
			wantMultiple: "x0",
		},
		{
			name: "accept without low risk",
			ratios: contracts.Ratios{
				AuditScore:         100,
				SmartMoneyIndex:    100,
				LiquidityRatio:     1,
				GrowthMomentum:     1,
				WhaleConcentration: 1,
			},
			wantScore:    70,
			wantVerdict:  contracts.VerdictAccept,
			wantRisk:     contracts.RiskMedium,
			wantMultiple: "x151",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Decide(tt.ratios, tt.flags)
			assert.InDelta(t, tt.wantScore, d.Score, 1e-9)
			assert.Equal(t, tt.wantVerdict, d.Verdict)
			assert.Equal(t, tt.wantRisk, d.Risk)
			assert.Equal(t, tt.wantMultiple, d.EstimatedMultiple)
			assert.Len(t, d.Breakdown, 6)
		})
	}
}

func TestVerdict_Boundaries(t *testing.T) {
	engine := New(nil)

	assert.Equal(t, contracts.VerdictAccept, engine.verdict(70))
	assert.Equal(t, contracts.VerdictReview, engine.verdict(69.999))
	assert.Equal(t, contracts.VerdictReview, engine.verdict(40))
	assert.Equal(t, contracts.VerdictReject, engine.verdict(39.999))
	assert.Equal(t, contracts.VerdictReject, engine.verdict(0))
}

func TestDecide_ExactThresholdScores(t *testing.T) {
	engine := New(nil)

	// 20 + 20 + 15 + 15 = 70 exactly, whale saturated to 0 points
	atGo := engine.Decide(contracts.Ratios{
		AuditScore: 100, SmartMoneyIndex: 100, LiquidityRatio: 1, GrowthMomentum: 1, WhaleConcentration: 1,
	}, nil)
	assert.Equal(t, 70.0, atGo.Score)
	assert.Equal(t, contracts.VerdictAccept, atGo.Verdict)

	// 20 + 20 = 40 exactly
	atReview := engine.Decide(contracts.Ratios{AuditScore: 100, SmartMoneyIndex: 100, WhaleConcentration: 1}, nil)
	assert.Equal(t, 40.0, atReview.Score)
	assert.Equal(t, contracts.VerdictReview, atReview.Verdict)
}

func TestMultiple(t *testing.T) {
	assert.Equal(t, "x1000", multiple(100, contracts.VerdictAccept))
	assert.Equal(t, "x10", multiple(65, contracts.VerdictAccept))
	assert.Equal(t, "x0", multiple(100, contracts.VerdictReview))
	assert.Equal(t, "x10", multiple(30, contracts.VerdictAccept))
}

func TestDecide_LowGoScoreNeverNegativeMultiple(t *testing.T) {
	cfg := scoringconfig.Default()
	cfg.Thresholds.GoScore = 30
	cfg.Thresholds.ReviewScore = 20
	engine := New(cfg)

	// 20 + 20 = 40, ACCEPT under go_score 30 but below the multiple floor of 65
	d := engine.Decide(contracts.Ratios{AuditScore: 100, SmartMoneyIndex: 100, WhaleConcentration: 1}, nil)
	assert.Equal(t, contracts.VerdictAccept, d.Verdict)
	assert.Equal(t, "x10", d.EstimatedMultiple)
}

func TestRisk(t *testing.T) {
	assert.Equal(t, contracts.RiskLow, risk(80.5, contracts.VerdictAccept))
	assert.Equal(t, contracts.RiskMedium, risk(80, contracts.VerdictAccept))
	assert.Equal(t, contracts.RiskHigh, risk(50, contracts.VerdictReview))
}

func TestDecide_CustomThresholds(t *testing.T) {
	cfg := scoringconfig.Default()
	cfg.Thresholds.GoScore = 95
	cfg.Thresholds.ReviewScore = 85
	engine := New(cfg)

	d := engine.Decide(perfectRatios(), nil)
	assert.Equal(t, contracts.VerdictReview, d.Verdict)
}

func TestDecide_ClampsAbove100(t *testing.T) {
	cfg := scoringconfig.Default()
	cfg.Weights.AuditScore.Points = 80
	engine := New(cfg)

	d := engine.Decide(perfectRatios(), nil)
	assert.Equal(t, 100.0, d.Score)
	assert.Equal(t, "x1000", d.EstimatedMultiple)
}

// Random ratios always respect the score range and the verdict bands
func TestDecide_RandomInvariants(t *testing.T) {
	engine := New(nil)
	rng := rand.New(rand.NewSource(7))
	goScore, review := engine.Config().Thresholds.GoScore, engine.Config().Thresholds.ReviewScore

	for i := 0; i < 1000; i++ {
		r := contracts.Ratios{
			LiquidityRatio:     rng.Float64() * 0.3,
			WhaleConcentration: rng.Float64(),
			AuditScore:         rng.Float64() * 100,
			GrowthMomentum:     rng.Float64() * 0.3,
			TradingVolumeRatio: rng.Float64() * 0.1,
			SmartMoneyIndex:    rng.Float64() * 100,
		}
		var flags contracts.Flags
		if rng.Intn(10) == 0 {
			flags = flags.With(contracts.FlagScam)
		}

		d := engine.Decide(r, flags)
		require.False(t, math.IsNaN(d.Score))
		assert.GreaterOrEqual(t, d.Score, 0.0)
		assert.LessOrEqual(t, d.Score, 100.0)

		switch d.Verdict {
		case contracts.VerdictAccept:
			assert.GreaterOrEqual(t, d.Score, goScore)
		case contracts.VerdictReview:
			assert.GreaterOrEqual(t, d.Score, review)
			assert.Less(t, d.Score, goScore)
		case contracts.VerdictReject:
			assert.Less(t, d.Score, review)
		}

		if flags.Has(contracts.FlagScam) {
			assert.Equal(t, 0.0, d.Score)
			assert.Equal(t, contracts.VerdictReject, d.Verdict)
		}

		// pure: same input, same output
		assert.Equal(t, d, engine.Decide(r, flags))
	}
}
