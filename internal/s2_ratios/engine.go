package s2_ratios

import (
	"math"

	"github.com/wonny/quantum/internal/contracts"
)

// Compute derives the 21 ratios from an enriched candidate
// ⭐ SSOT: ratio formulas live here only. Pure, no I/O.
func Compute(ec contracts.EnrichedCandidate) contracts.Ratios {
	s := ec.Signals

	mc := s.Get(contracts.SigMarketCap)
	fdv := s.Get(contracts.SigFDV)
	circ := s.Get(contracts.SigCirculatingSupply)
	total := s.Get(contracts.SigTotalSupply)

	r := contracts.Ratios{
		MarketcapVsFDV:       safeDiv(mc, fdv),
		CircVsTotalSupply:    safeDiv(circ, total),
		VestingUnlockPercent: s.Get(contracts.SigVestingUnlockPercent),
		TradingVolumeRatio:   safeDiv(s.Get(contracts.SigTradingVolume), mc),
		LiquidityRatio:       safeDiv(s.Get(contracts.SigLiquidityUSD), mc),
		TVLMarketCapRatio:    safeDiv(s.Get(contracts.SigTVL), mc),
		WhaleConcentration:   s.Get(contracts.SigWhaleConcentration),
		AuditScore:           s.Get(contracts.SigAuditScore),

		DeveloperActivityScore: s.Get(contracts.SigDeveloperActivity),
		CommunityEngagement:    s.Get(contracts.SigCommunityEngagement),
		GrowthMomentum:         s.Get(contracts.SigGrowthMomentum),
		HypeMomentum:           s.Get(contracts.SigHypeMomentum),
		TokenUtilityRatio:      s.Get(contracts.SigTokenUtility),
		OnChainAnomalyScore:    s.Get(contracts.SigOnChainAnomaly),
		RugpullRiskProxy:       s.Get(contracts.SigRugpullRisk),
		FundingVCStrength:      s.Get(contracts.SigFundingVCStrength),
		PriceToLiquidityRatio:  s.Get(contracts.SigPriceToLiquidity),
		DeveloperVCRatio:       s.Get(contracts.SigDeveloperVCRatio),
		RetentionRatio:         s.Get(contracts.SigRetention),
		SmartMoneyIndex:        s.Get(contracts.SigSmartMoneyIndex),
	}
	if s.Bool(contracts.SigContractVerified) {
		r.ContractVerified = 1
	}

	return clampAll(r)
}

// clampAll forces every field into its documented bound; non-finite becomes 0
func clampAll(r contracts.Ratios) contracts.Ratios {
	fields := []struct {
		name string
		ptr  *float64
	}{
		{"marketcap_vs_fdv", &r.MarketcapVsFDV},
		{"circ_vs_total_supply", &r.CircVsTotalSupply},
		{"vesting_unlock_percent", &r.VestingUnlockPercent},
		{"trading_volume_ratio", &r.TradingVolumeRatio},
		{"liquidity_ratio", &r.LiquidityRatio},
		{"tvl_market_cap_ratio", &r.TVLMarketCapRatio},
		{"whale_concentration", &r.WhaleConcentration},
		{"audit_score", &r.AuditScore},
		{"contract_verified", &r.ContractVerified},
		{"developer_activity_score", &r.DeveloperActivityScore},
		{"community_engagement", &r.CommunityEngagement},
		{"growth_momentum", &r.GrowthMomentum},
		{"hype_momentum", &r.HypeMomentum},
		{"token_utility_ratio", &r.TokenUtilityRatio},
		{"on_chain_anomaly_score", &r.OnChainAnomalyScore},
		{"rugpull_risk_proxy", &r.RugpullRiskProxy},
		{"funding_vc_strength", &r.FundingVCStrength},
		{"price_to_liquidity_ratio", &r.PriceToLiquidityRatio},
		{"developer_vc_ratio", &r.DeveloperVCRatio},
		{"retention_ratio", &r.RetentionRatio},
		{"smart_money_index", &r.SmartMoneyIndex},
	}

	for _, f := range fields {
		b := contracts.BoundFor(f.name)
		*f.ptr = clamp(*f.ptr, b.Min, b.Max)
	}
	return r
}

// safeDiv returns 0 when the denominator is not positive
func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

func clamp(v, min, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
