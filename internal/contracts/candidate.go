package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Candidate is a project identified by a source, not yet enriched
// ⭐ SSOT: S0 → S1 discovery output
type Candidate struct {
	Source string `json:"source"` // e.g. "icodrops", "dexscreener:ethereum"
	URL    string `json:"url"`    // canonical, unique key across the system

	Name            string `json:"name,omitempty"`
	Symbol          string `json:"symbol,omitempty"`
	Website         string `json:"website,omitempty"`
	Chain           string `json:"chain,omitempty"`
	ContractAddress string `json:"contract_address,omitempty"`
	PairAddress     string `json:"pair_address,omitempty"`

	DiscoveredAt time.Time `json:"discovered_at"`
}

// Validate checks that source and url are present
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return fmt.Errorf("candidate source is empty")
	}
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("candidate %q has empty url", c.Source)
	}
	return nil
}

// HasContract reports whether on-chain lookups are possible
func (c Candidate) HasContract() bool {
	return c.ContractAddress != ""
}

// DisplayName returns the best human label available
func (c Candidate) DisplayName() string {
	switch {
	case c.Name != "" && c.Symbol != "":
		return fmt.Sprintf("%s (%s)", c.Name, strings.ToUpper(c.Symbol))
	case c.Name != "":
		return c.Name
	case c.Symbol != "":
		return strings.ToUpper(c.Symbol)
	default:
		return c.URL
	}
}

// EnrichedCandidate is a Candidate plus the signals gathered for it
// ⭐ SSOT: S1 → S2 enrichment output. Candidate fields are copied, never mutated.
type EnrichedCandidate struct {
	Candidate  Candidate `json:"candidate"`
	Signals    Signals   `json:"signals"`
	Flags      Flags     `json:"flags"`
	EnrichedAt time.Time `json:"enriched_at"`
}

// Flag tags a record with a qualitative finding
type Flag string

const (
	FlagScam       Flag = "flag:scam"
	FlagUnlisted   Flag = "flag:unlisted"
	FlagLPUnlocked Flag = "flag:lp_unlocked"
)

// Flags is a small ordered set of flags
type Flags []Flag

// Has reports whether f is set
func (fs Flags) Has(f Flag) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}

// With returns fs with f added once
func (fs Flags) With(f Flag) Flags {
	if fs.Has(f) {
		return fs
	}
	return append(fs, f)
}
