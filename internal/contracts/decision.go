package contracts

// Verdict is the pipeline classification of a project
type Verdict string

const (
	VerdictAccept Verdict = "ACCEPT"
	VerdictReview Verdict = "REVIEW"
	VerdictReject Verdict = "REJECT"
)

// Alertable reports whether the verdict is routed to a chat channel
func (v Verdict) Alertable() bool {
	return v == VerdictAccept || v == VerdictReview
}

// Risk is a coarse risk bucket derived from the score
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// Decision is the outcome of the decision engine
// ⭐ SSOT: S3 output
type Decision struct {
	Score             float64 `json:"score_global"` // [0,100]
	Verdict           Verdict `json:"verdict"`
	Risk              Risk    `json:"risk"`
	EstimatedMultiple string  `json:"estimated_multiple"` // "x<N>", "x0" unless ACCEPT

	// Breakdown holds each weighted sub-score before clamping
	Breakdown map[string]float64 `json:"breakdown,omitempty"`
}
