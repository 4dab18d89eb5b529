package contracts

import "time"

// ProjectRecord is the persisted outcome of scanning one project, keyed by url
// ⭐ SSOT: the only type written to a Store
type ProjectRecord struct {
	Candidate
	Signals  Signals  `json:"signals"`
	Flags    Flags    `json:"flags,omitempty"`
	Ratios   Ratios   `json:"ratios"`
	Decision Decision `json:"decision"`

	FirstSeenAt     time.Time `json:"first_seen_at"`
	LastScanAt      time.Time `json:"last_scan_at"`
	ScanCount       int       `json:"scan_count"`
	AlertedVerdicts []Verdict `json:"alerted_verdicts,omitempty"`
	RunID           string    `json:"run_id,omitempty"`
}

// WasAlerted reports whether an alert for v was already dispatched
func (r *ProjectRecord) WasAlerted(v Verdict) bool {
	for _, a := range r.AlertedVerdicts {
		if a == v {
			return true
		}
	}
	return false
}

// MarkAlerted records v as dispatched
func (r *ProjectRecord) MarkAlerted(v Verdict) {
	if !r.WasAlerted(v) {
		r.AlertedVerdicts = append(r.AlertedVerdicts, v)
	}
}

// Enriched rebuilds the enrichment view of a stored record
func (r *ProjectRecord) Enriched() EnrichedCandidate {
	return EnrichedCandidate{
		Candidate: r.Candidate,
		Signals:   r.Signals,
		Flags:     r.Flags,
	}
}
