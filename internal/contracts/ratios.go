package contracts

// Ratios holds the 21 scalars derived from an EnrichedCandidate
// ⭐ SSOT: S2 → S3 ratio set. Keys are a closed set; bounds per field.
type Ratios struct {
	MarketcapVsFDV         float64 `json:"marketcap_vs_fdv"`         // [0,1]
	CircVsTotalSupply      float64 `json:"circ_vs_total_supply"`     // [0,1]
	VestingUnlockPercent   float64 `json:"vesting_unlock_percent"`   // [0,1]
	TradingVolumeRatio     float64 `json:"trading_volume_ratio"`     // [0,1]
	LiquidityRatio         float64 `json:"liquidity_ratio"`          // [0,1]
	TVLMarketCapRatio      float64 `json:"tvl_market_cap_ratio"`     // [0,1]
	WhaleConcentration     float64 `json:"whale_concentration"`      // [0,1]
	AuditScore             float64 `json:"audit_score"`              // [0,100]
	ContractVerified       float64 `json:"contract_verified"`        // 0 or 1
	DeveloperActivityScore float64 `json:"developer_activity_score"` // [0,100]
	CommunityEngagement    float64 `json:"community_engagement"`     // [0,1]
	GrowthMomentum         float64 `json:"growth_momentum"`          // [0,1]
	HypeMomentum           float64 `json:"hype_momentum"`            // [0,1]
	TokenUtilityRatio      float64 `json:"token_utility_ratio"`      // [0,1]
	OnChainAnomalyScore    float64 `json:"on_chain_anomaly_score"`   // [0,1]
	RugpullRiskProxy       float64 `json:"rugpull_risk_proxy"`       // [0,1]
	FundingVCStrength      float64 `json:"funding_vc_strength"`      // [0,100]
	PriceToLiquidityRatio  float64 `json:"price_to_liquidity_ratio"` // [0,1000]
	DeveloperVCRatio       float64 `json:"developer_vc_ratio"`       // [0,1]
	RetentionRatio         float64 `json:"retention_ratio"`          // [0,1]
	SmartMoneyIndex        float64 `json:"smart_money_index"`        // [0,100]
}

// RatioBound is the closed interval a ratio lives in
type RatioBound struct {
	Min float64
	Max float64
}

var ratioNames = []string{
	"marketcap_vs_fdv",
	"circ_vs_total_supply",
	"vesting_unlock_percent",
	"trading_volume_ratio",
	"liquidity_ratio",
	"tvl_market_cap_ratio",
	"whale_concentration",
	"audit_score",
	"contract_verified",
	"developer_activity_score",
	"community_engagement",
	"growth_momentum",
	"hype_momentum",
	"token_utility_ratio",
	"on_chain_anomaly_score",
	"rugpull_risk_proxy",
	"funding_vc_strength",
	"price_to_liquidity_ratio",
	"developer_vc_ratio",
	"retention_ratio",
	"smart_money_index",
}

var (
	unitBound    = RatioBound{Min: 0, Max: 1}
	percentBound = RatioBound{Min: 0, Max: 100}
	ratioBounds  = map[string]RatioBound{
		"audit_score":              percentBound,
		"developer_activity_score": percentBound,
		"funding_vc_strength":      percentBound,
		"smart_money_index":        percentBound,
		"price_to_liquidity_ratio": {Min: 0, Max: 1000},
	}
)

// RatioNames returns the 21 ratio names in canonical order
func RatioNames() []string {
	out := make([]string, len(ratioNames))
	copy(out, ratioNames)
	return out
}

// BoundFor returns the documented interval of a ratio
func BoundFor(name string) RatioBound {
	if b, ok := ratioBounds[name]; ok {
		return b
	}
	return unitBound
}

// Map returns the ratios keyed by name
func (r Ratios) Map() map[string]float64 {
	return map[string]float64{
		"marketcap_vs_fdv":         r.MarketcapVsFDV,
		"circ_vs_total_supply":     r.CircVsTotalSupply,
		"vesting_unlock_percent":   r.VestingUnlockPercent,
		"trading_volume_ratio":     r.TradingVolumeRatio,
		"liquidity_ratio":          r.LiquidityRatio,
		"tvl_market_cap_ratio":     r.TVLMarketCapRatio,
		"whale_concentration":      r.WhaleConcentration,
		"audit_score":              r.AuditScore,
		"contract_verified":        r.ContractVerified,
		"developer_activity_score": r.DeveloperActivityScore,
		"community_engagement":     r.CommunityEngagement,
		"growth_momentum":          r.GrowthMomentum,
		"hype_momentum":            r.HypeMomentum,
		"token_utility_ratio":      r.TokenUtilityRatio,
		"on_chain_anomaly_score":   r.OnChainAnomalyScore,
		"rugpull_risk_proxy":       r.RugpullRiskProxy,
		"funding_vc_strength":      r.FundingVCStrength,
		"price_to_liquidity_ratio": r.PriceToLiquidityRatio,
		"developer_vc_ratio":       r.DeveloperVCRatio,
		"retention_ratio":          r.RetentionRatio,
		"smart_money_index":        r.SmartMoneyIndex,
	}
}
