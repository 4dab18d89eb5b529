package contracts

import "time"

// Pipeline stage definitions (SSOT)
// Every log line and metric label uses these constants.
//
// Flow:
//   S0 → S1 → S2 → S3 → persist → notify
//   Discovery  Enrich  Ratios  Decision

// Stage represents a pipeline stage
type Stage string

const (
	// StageDiscovery S0: sources, dedup, seen filter
	// Location: internal/s0_discovery/
	StageDiscovery Stage = "S0_DISCOVERY"

	// StageEnrich S1: auxiliary lookups per candidate
	// Location: internal/s1_enrich/
	StageEnrich Stage = "S1_ENRICH"

	// StageRatios S2: 21 bounded ratios
	// Location: internal/s2_ratios/
	StageRatios Stage = "S2_RATIOS"

	// StageDecision S3: weighted score, verdict, risk, multiple
	// Location: internal/s3_decision/
	StageDecision Stage = "S3_DECISION"

	// StagePersist: store upsert
	StagePersist Stage = "PERSIST"

	// StageNotify: chat dispatch
	// Location: internal/notify/
	StageNotify Stage = "NOTIFY"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageDiscovery:
		return "S0"
	case StageEnrich:
		return "S1"
	case StageRatios:
		return "S2"
	case StageDecision:
		return "S3"
	case StagePersist:
		return "PS"
	case StageNotify:
		return "NT"
	default:
		return "UNKNOWN"
	}
}

// AllStages returns all stages in order
func AllStages() []Stage {
	return []Stage{
		StageDiscovery,
		StageEnrich,
		StageRatios,
		StageDecision,
		StagePersist,
		StageNotify,
	}
}

// SourceError records one failing source in a cycle
type SourceError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// CycleMetrics summarises one scan cycle
// ⭐ SSOT: cycle summary logged, exported and returned to callers
type CycleMetrics struct {
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"` // "scan" or "rescan"
	DryRun    bool      `json:"dry_run"`
	StartedAt time.Time `json:"started_at"`
	Duration  float64   `json:"duration_seconds"`

	Discovered     int           `json:"discovered"`
	New            int           `json:"new"`
	Accepted       int           `json:"accepted"`
	Review         int           `json:"review"`
	Rejected       int           `json:"rejected"`
	AlertsSent     int           `json:"alerts_sent"`
	EnrichFailures int           `json:"enrich_failures"`
	SourceErrors   []SourceError `json:"source_errors"`
	ScoringVersion string        `json:"scoring_version,omitempty"`
	AlertsSkipped  bool          `json:"alerts_skipped,omitempty"`
}

// Processed returns the number of records that reached a decision
func (m *CycleMetrics) Processed() int {
	return m.Accepted + m.Review + m.Rejected
}
