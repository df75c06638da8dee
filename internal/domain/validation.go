package domain

// ValidationStep is the immutable record of one risk-rule evaluation.
type ValidationStep struct {
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// ValidationResult is the engine's verdict for a single OrderIntent. Steps
// always contains every check in evaluation order, regardless of failures,
// so the caller can render a complete checklist. RejectionReason is set iff
// Passed is false.
type ValidationResult struct {
	Passed          bool             `json:"passed"`
	Steps           []ValidationStep `json:"steps"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
}
