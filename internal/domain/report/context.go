package report

// TechnicalContext captures the client environment at submission time.
// Optional fields are omitted from the stored JSON when never supplied, so
// the payload round-trips exactly.
type TechnicalContext struct {
	Browser   string `json:"browser,omitempty"`
	OS        string `json:"os,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Viewport  string `json:"viewport,omitempty"`
	Timestamp string `json:"timestamp"`
}

// SubmitterKind classifies who filed the report. Derived at submission,
// never stored redundantly elsewhere.
type SubmitterKind string

const (
	SubmitterAnonymous SubmitterKind = "anonymous"
	SubmitterBuyer     SubmitterKind = "buyer"
	SubmitterSeller    SubmitterKind = "seller"
)
