package scoringconfig

// Config holds the decision model: thresholds plus six weighted features
// ⭐ SSOT: every scoring constant lives here
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Weights    Weights    `yaml:"weights" json:"weights"`
}

// Meta identifies the model version
type Meta struct {
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// Thresholds map a score to a verdict
type Thresholds struct {
	GoScore     float64 `yaml:"go_score" json:"go_score"`         // score >= GoScore → ACCEPT
	ReviewScore float64 `yaml:"review_score" json:"review_score"` // score >= ReviewScore → REVIEW
}

// Weights are the six scored features
type Weights struct {
	LiquidityRatio     Feature `yaml:"liquidity_ratio" json:"liquidity_ratio"`
	WhaleConcentration Feature `yaml:"whale_concentration" json:"whale_concentration"` // inverse
	AuditScore         Feature `yaml:"audit_score" json:"audit_score"`
	GrowthMomentum     Feature `yaml:"growth_momentum" json:"growth_momentum"`
	TradingVolumeRatio Feature `yaml:"trading_volume_ratio" json:"trading_volume_ratio"`
	SmartMoneyIndex    Feature `yaml:"smart_money_index" json:"smart_money_index"`
}

// Feature contributes Points · min(x/Scale, 1), or Points · max(0, 1 − x/Scale) when inverse
type Feature struct {
	Points float64 `yaml:"points" json:"points"`
	Scale  float64 `yaml:"scale" json:"scale"`
}

// Default returns the canonical six-weight scheme
func Default() *Config {
	return &Config{
		Meta: Meta{
			Version:     "linear-v1",
			Description: "six-feature linear score",
		},
		Thresholds: Thresholds{
			GoScore:     70,
			ReviewScore: 40,
		},
		Weights: Weights{
			LiquidityRatio:     Feature{Points: 15, Scale: 0.1},
			WhaleConcentration: Feature{Points: 10, Scale: 0.4},
			AuditScore:         Feature{Points: 20, Scale: 100},
			GrowthMomentum:     Feature{Points: 15, Scale: 0.10},
			TradingVolumeRatio: Feature{Points: 10, Scale: 0.05},
			SmartMoneyIndex:    Feature{Points: 20, Scale: 100},
		},
	}
}

// TotalPoints returns the sum of all feature points
func (w Weights) TotalPoints() float64 {
	return w.LiquidityRatio.Points +
		w.WhaleConcentration.Points +
		w.AuditScore.Points +
		w.GrowthMomentum.Points +
		w.TradingVolumeRatio.Points +
		w.SmartMoneyIndex.Points
}
