package s2_ratios

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantum/internal/contracts"
)

func enriched(set func(s *contracts.Signals)) contracts.EnrichedCandidate {
	ec := contracts.EnrichedCandidate{
		Candidate: contracts.Candidate{Source: "test", URL: "https://example.com/p"},
	}
	set(&ec.Signals)
	return ec
}

func TestCompute_BasicRatios(t *testing.T) {
	ec := enriched(func(s *contracts.Signals) {
		s.Set(contracts.SigMarketCap, 1_000_000)
		s.Set(contracts.SigFDV, 4_000_000)
		s.Set(contracts.SigCirculatingSupply, 250)
		s.Set(contracts.SigTotalSupply, 1000)
		s.Set(contracts.SigTradingVolume, 50_000)
		s.Set(contracts.SigLiquidityUSD, 100_000)
		s.Set(contracts.SigTVL, 200_000)
		s.Set(contracts.SigAuditScore, 85)
		s.SetBool(contracts.SigContractVerified, true)
	})

	r := Compute(ec)
	assert.InDelta(t, 0.25, r.MarketcapVsFDV, 1e-9)
	assert.InDelta(t, 0.25, r.CircVsTotalSupply, 1e-9)
	assert.InDelta(t, 0.05, r.TradingVolumeRatio, 1e-9)
	assert.InDelta(t, 0.1, r.LiquidityRatio, 1e-9)
	assert.InDelta(t, 0.2, r.TVLMarketCapRatio, 1e-9)
	assert.Equal(t, 85.0, r.AuditScore)
	assert.Equal(t, 1.0, r.ContractVerified)
}

func TestCompute_DegenerateDenominators(t *testing.T) {
	ec := enriched(func(s *contracts.Signals) {
		s.Set(contracts.SigMarketCap, 500)
		s.Set(contracts.SigFDV, 0)
		s.Set(contracts.SigCirculatingSupply, 10)
		s.Set(contracts.SigLiquidityUSD, 100)
	})

	r := Compute(ec)
	assert.Equal(t, 0.0, r.MarketcapVsFDV, "fdv = 0 must give 0, not infinity")
	assert.Equal(t, 0.0, r.CircVsTotalSupply)

	noMC := enriched(func(s *contracts.Signals) {
		s.Set(contracts.SigTradingVolume, 100)
		s.Set(contracts.SigLiquidityUSD, 100)
		s.Set(contracts.SigTVL, 100)
	})
	r = Compute(noMC)
	assert.Equal(t, 0.0, r.TradingVolumeRatio)
	assert.Equal(t, 0.0, r.LiquidityRatio)
	assert.Equal(t, 0.0, r.TVLMarketCapRatio)
}

func TestCompute_ClampsToBounds(t *testing.T) {
	ec := enriched(func(s *contracts.Signals) {
		s.Set(contracts.SigMarketCap, 100)
		s.Set(contracts.SigLiquidityUSD, 1_000_000) // ratio 10_000 → 1
		s.Set(contracts.SigAuditScore, 250)
		s.Set(contracts.SigPriceToLiquidity, 5000)
		s.Set(contracts.SigWhaleConcentration, 3)
		s.Set(contracts.SigSmartMoneyIndex, 101)
	})

	r := Compute(ec)
	assert.Equal(t, 1.0, r.LiquidityRatio)
	assert.Equal(t, 100.0, r.AuditScore)
	assert.Equal(t, 1000.0, r.PriceToLiquidityRatio)
	assert.Equal(t, 1.0, r.WhaleConcentration)
	assert.Equal(t, 100.0, r.SmartMoneyIndex)
}

func TestCompute_EmptyIsAllZero(t *testing.T) {
	r := Compute(contracts.EnrichedCandidate{})
	for name, v := range r.Map() {
		assert.Equal(t, 0.0, v, name)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	ec := enriched(func(s *contracts.Signals) {
		s.Set(contracts.SigMarketCap, 12345)
		s.Set(contracts.SigFDV, 67890)
		s.Set(contracts.SigGrowthMomentum, 0.07)
	})
	assert.Equal(t, Compute(ec), Compute(ec))
}

// Random inputs, including NaN and Inf, always produce the closed key set within bounds
func TestCompute_RandomInputsStayInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	specials := []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1, 0, 1e300}

	for i := 0; i < 500; i++ {
		ec := enriched(func(s *contracts.Signals) {
			for _, k := range contracts.AllSignalKeys() {
				if rng.Intn(5) == 0 {
					s.Set(k, specials[rng.Intn(len(specials))])
				} else {
					s.Set(k, rng.Float64()*math.Pow(10, float64(rng.Intn(10))))
				}
			}
		})

		m := Compute(ec).Map()
		require.Len(t, m, 21)
		for _, name := range contracts.RatioNames() {
			v, ok := m[name]
			require.True(t, ok, name)
			b := contracts.BoundFor(name)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), name)
			assert.GreaterOrEqual(t, v, b.Min, name)
			assert.LessOrEqual(t, v, b.Max, name)
		}
	}
}
