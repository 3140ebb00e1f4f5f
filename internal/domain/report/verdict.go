package report

// Verdict is the structured outcome of classifying a submitted description.
// Both the remote classifier and the deterministic fallback produce this
// shape with the same category/severity vocabulary, so downstream gating
// never needs to know which path ran.
type Verdict struct {
	Valid                bool     `json:"valid"`
	QualityScore         *float64 `json:"quality_score,omitempty"`
	Category             string   `json:"category,omitempty"`
	Severity             string   `json:"severity,omitempty"`
	Title                string   `json:"title,omitempty"`
	SanitizedDescription string   `json:"sanitized_description,omitempty"`
	RejectionReason      string   `json:"rejection_reason,omitempty"`
	NeedsClarification   bool     `json:"needs_clarification"`
	ClarificationMessage string   `json:"clarification_message,omitempty"`
}

// Storable reports whether a verdict allows persisting a report. Valid
// reports and reports flagged for clarification are both stored; only
// clarification blocks immediate publication.
func (v Verdict) Storable() bool {
	return v.Valid || v.NeedsClarification
}

const (
	CategoryPayment        = "payment"
	CategoryPerformance    = "performance"
	CategoryData           = "data"
	CategoryUI             = "ui"
	CategoryAuthentication = "authentication"
	CategoryOther          = "other"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

func ScorePtr(score float64) *float64 {
	return &score
}
