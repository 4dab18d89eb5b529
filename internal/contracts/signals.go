package contracts

import (
	"encoding/json"
	"math"
)

// SignalKey identifies a known numeric signal
type SignalKey int

const (
	SigMarketCap SignalKey = iota
	SigFDV
	SigCirculatingSupply
	SigTotalSupply
	SigVestingUnlockPercent
	SigLiquidityUSD
	SigTradingVolume
	SigTVL
	SigWhaleConcentration
	SigAuditScore
	SigContractVerified
	SigDeveloperActivity
	SigCommunityEngagement
	SigGrowthMomentum
	SigHypeMomentum
	SigTokenUtility
	SigOnChainAnomaly
	SigRugpullRisk
	SigFundingVCStrength
	SigPriceToLiquidity
	SigDeveloperVCRatio
	SigRetention
	SigSmartMoneyIndex
	SigTwitterFollowers
	SigTelegramMembers
	SigDiscordMembers
	SigGithubCommitActivity
	SigPriceUSD
	SigListed
	SigLPLocked
	SigIsScam
	SigIsHoneypot
	SigPairAgeHours

	numSignals
)

var signalNames = [numSignals]string{
	SigMarketCap:            "market_cap",
	SigFDV:                  "fdv",
	SigCirculatingSupply:    "circulating_supply",
	SigTotalSupply:          "total_supply",
	SigVestingUnlockPercent: "vesting_unlock_percent",
	SigLiquidityUSD:         "liquidity_usd",
	SigTradingVolume:        "trading_volume",
	SigTVL:                  "tvl",
	SigWhaleConcentration:   "whale_concentration",
	SigAuditScore:           "audit_score",
	SigContractVerified:     "contract_verified",
	SigDeveloperActivity:    "developer_activity",
	SigCommunityEngagement:  "community_engagement",
	SigGrowthMomentum:       "growth_momentum",
	SigHypeMomentum:         "hype_momentum",
	SigTokenUtility:         "token_utility",
	SigOnChainAnomaly:       "on_chain_anomaly",
	SigRugpullRisk:          "rugpull_risk",
	SigFundingVCStrength:    "funding_vc_strength",
	SigPriceToLiquidity:     "price_to_liquidity",
	SigDeveloperVCRatio:     "developer_vc_ratio",
	SigRetention:            "retention",
	SigSmartMoneyIndex:      "smart_money_index",
	SigTwitterFollowers:     "twitter_followers",
	SigTelegramMembers:      "telegram_members",
	SigDiscordMembers:       "discord_members",
	SigGithubCommitActivity: "github_commit_activity",
	SigPriceUSD:             "price_usd",
	SigListed:               "listed",
	SigLPLocked:             "lp_locked",
	SigIsScam:               "is_scam",
	SigIsHoneypot:           "is_honeypot",
	SigPairAgeHours:         "pair_age_hours",
}

// String returns the wire name of the signal
func (k SignalKey) String() string {
	if k < 0 || k >= numSignals {
		return "unknown"
	}
	return signalNames[k]
}

// SignalKeyByName resolves a wire name
func SignalKeyByName(name string) (SignalKey, bool) {
	for i, n := range signalNames {
		if n == name {
			return SignalKey(i), true
		}
	}
	return 0, false
}

// AllSignalKeys returns every known key in declaration order
func AllSignalKeys() []SignalKey {
	keys := make([]SignalKey, numSignals)
	for i := range keys {
		keys[i] = SignalKey(i)
	}
	return keys
}

// Signals holds every known numeric signal, defaulting to 0.
// The presence bitmap records which values were actually supplied and is for observability only.
type Signals struct {
	values  [numSignals]float64
	present uint64

	// Raw holds unparsed upstream fragments for diagnostics
	Raw map[string]string
}

// Set stores a sanitised value: negatives, NaN and Inf become 0
func (s *Signals) Set(k SignalKey, v float64) {
	if k < 0 || k >= numSignals {
		return
	}
	s.values[k] = Sanitize(v)
	s.present |= 1 << uint(k)
}

// SetBool stores 1 or 0
func (s *Signals) SetBool(k SignalKey, b bool) {
	if b {
		s.Set(k, 1)
		return
	}
	s.Set(k, 0)
}

// Get returns the value of k, 0 when unresolved
func (s Signals) Get(k SignalKey) float64 {
	if k < 0 || k >= numSignals {
		return 0
	}
	return s.values[k]
}

// Bool reports whether k is set to a non-zero value
func (s Signals) Bool(k SignalKey) bool {
	return s.Get(k) != 0
}

// Has reports whether k was supplied
func (s Signals) Has(k SignalKey) bool {
	if k < 0 || k >= numSignals {
		return false
	}
	return s.present&(1<<uint(k)) != 0
}

// PresentCount returns how many signals were supplied
func (s Signals) PresentCount() int {
	n := 0
	for k := SignalKey(0); k < numSignals; k++ {
		if s.Has(k) {
			n++
		}
	}
	return n
}

// Merge copies every supplied value of other into s
func (s *Signals) Merge(other Signals) {
	for k := SignalKey(0); k < numSignals; k++ {
		if other.Has(k) {
			s.Set(k, other.values[k])
		}
	}
	for rk, rv := range other.Raw {
		s.SetRaw(rk, rv)
	}
}

// SetRaw records a diagnostic fragment
func (s *Signals) SetRaw(key, value string) {
	if s.Raw == nil {
		s.Raw = make(map[string]string)
	}
	s.Raw[key] = value
}

// Map returns supplied signals keyed by wire name
func (s Signals) Map() map[string]float64 {
	out := make(map[string]float64, numSignals)
	for k := SignalKey(0); k < numSignals; k++ {
		if s.Has(k) {
			out[k.String()] = s.values[k]
		}
	}
	return out
}

type signalsJSON struct {
	Values map[string]float64 `json:"values"`
	Raw    map[string]string  `json:"raw,omitempty"`
}

// MarshalJSON writes only the supplied signals
func (s Signals) MarshalJSON() ([]byte, error) {
	return json.Marshal(signalsJSON{Values: s.Map(), Raw: s.Raw})
}

// UnmarshalJSON restores values and presence; unknown keys are ignored
func (s *Signals) UnmarshalJSON(data []byte) error {
	var in signalsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Signals{Raw: in.Raw}
	for name, v := range in.Values {
		if k, ok := SignalKeyByName(name); ok {
			s.Set(k, v)
		}
	}
	return nil
}

// Sanitize maps negatives, NaN and Inf to 0
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
