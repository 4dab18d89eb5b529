package contracts

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Candidate
		wantErr bool
	}{
		{"valid", Candidate{Source: "icodrops", URL: "https://icodrops.com/x/"}, false},
		{"missing source", Candidate{URL: "https://icodrops.com/x/"}, true},
		{"missing url", Candidate{Source: "icodrops"}, true},
		{"blank url", Candidate{Source: "icodrops", URL: "  "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCandidate_DisplayName(t *testing.T) {
	assert.Equal(t, "Pepe (PEPE)", Candidate{Name: "Pepe", Symbol: "pepe"}.DisplayName())
	assert.Equal(t, "Pepe", Candidate{Name: "Pepe"}.DisplayName())
	assert.Equal(t, "https://x", Candidate{URL: "https://x"}.DisplayName())
}

func TestSignals_SetSanitises(t *testing.T) {
	var s Signals

	s.Set(SigMarketCap, -5)
	s.Set(SigFDV, math.NaN())
	s.Set(SigTVL, math.Inf(1))
	s.Set(SigLiquidityUSD, 12000)

	assert.Equal(t, 0.0, s.Get(SigMarketCap))
	assert.Equal(t, 0.0, s.Get(SigFDV))
	assert.Equal(t, 0.0, s.Get(SigTVL))
	assert.Equal(t, 12000.0, s.Get(SigLiquidityUSD))

	// sanitised values still count as supplied
	assert.True(t, s.Has(SigMarketCap))
	assert.False(t, s.Has(SigAuditScore))
	assert.Equal(t, 4, s.PresentCount())
}

func TestSignals_UnresolvedDefaultsToZero(t *testing.T) {
	var s Signals
	for _, k := range AllSignalKeys() {
		assert.Equal(t, 0.0, s.Get(k), k.String())
	}
	assert.Equal(t, 0.0, s.Get(SignalKey(999)))
}

func TestSignals_Merge(t *testing.T) {
	var a, b Signals
	a.Set(SigMarketCap, 100)
	b.Set(SigFDV, 200)
	b.SetBool(SigListed, true)
	b.SetRaw("coingecko", "ok")

	a.Merge(b)
	assert.Equal(t, 100.0, a.Get(SigMarketCap))
	assert.Equal(t, 200.0, a.Get(SigFDV))
	assert.True(t, a.Bool(SigListed))
	assert.Equal(t, "ok", a.Raw["coingecko"])
}

func TestSignals_JSONRoundTripKeepsPresence(t *testing.T) {
	var s Signals
	s.Set(SigAuditScore, 80)
	s.SetBool(SigIsScam, false)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Signals
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 80.0, back.Get(SigAuditScore))
	assert.True(t, back.Has(SigIsScam))
	assert.False(t, back.Has(SigFDV))
}

func TestSignalKeyNames(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range AllSignalKeys() {
		name := k.String()
		require.NotEmpty(t, name)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true

		back, ok := SignalKeyByName(name)
		assert.True(t, ok)
		assert.Equal(t, k, back)
	}
}

func TestFlags(t *testing.T) {
	var fs Flags
	fs = fs.With(FlagScam).With(FlagScam).With(FlagUnlisted)
	assert.Len(t, fs, 2)
	assert.True(t, fs.Has(FlagScam))
	assert.False(t, fs.Has(FlagLPUnlocked))
}

func TestRatios_ClosedKeySet(t *testing.T) {
	names := RatioNames()
	require.Len(t, names, 21)

	m := Ratios{}.Map()
	assert.Len(t, m, 21)
	for _, n := range names {
		_, ok := m[n]
		assert.True(t, ok, n)
	}

	assert.Equal(t, 100.0, BoundFor("audit_score").Max)
	assert.Equal(t, 1000.0, BoundFor("price_to_liquidity_ratio").Max)
	assert.Equal(t, 1.0, BoundFor("liquidity_ratio").Max)
}

func TestProjectRecord_MarkAlerted(t *testing.T) {
	rec := &ProjectRecord{}
	assert.False(t, rec.WasAlerted(VerdictAccept))

	rec.MarkAlerted(VerdictAccept)
	rec.MarkAlerted(VerdictAccept)
	assert.True(t, rec.WasAlerted(VerdictAccept))
	assert.False(t, rec.WasAlerted(VerdictReview))
	assert.Len(t, rec.AlertedVerdicts, 1)
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, ChannelMain, ChannelFor(VerdictAccept))
	assert.Equal(t, ChannelReview, ChannelFor(VerdictReview))
}

func TestStage_ShortName(t *testing.T) {
	for _, s := range AllStages() {
		assert.NotEqual(t, "UNKNOWN", s.ShortName(), s.String())
	}
	assert.Equal(t, "UNKNOWN", Stage("X").ShortName())
}
