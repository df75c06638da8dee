// Package lifecycle defines the order state machine: the legal transition
// table and the planner that turns a validation verdict into the full
// sequence of transitions to apply.
//
// The planner is synchronous and untimed. Any delay between transitions is a
// presentation concern injected by the caller; see service.Pacer.
package lifecycle

import "github.com/quantfloor/deskd/internal/domain"

// Transition notes recorded on each lifecycle hop.
const (
	NoteValidated    = "All validation checks passed"
	NoteProcessed    = "Validation engine processed"
	NoteRiskApproved = "Risk desk sign-off (simulated)"
	NoteStaged       = "Order staged for execution"
	NoteRejected     = "Failed risk checks"
	NoteEngineDown   = "Validation engine unavailable"
)

// GenericRejectionReason is used when the engine could not be invoked at all,
// so no business rejection reason exists.
const GenericRejectionReason = "Unable to reach validation engine."

// legalNext is the transition table. READY and REJECTED are terminal;
// REJECTED is reachable from CREATED only on engine-invocation failure.
var legalNext = map[domain.OrderState][]domain.OrderState{
	domain.OrderStateCreated:      {domain.OrderStateValidated, domain.OrderStateRejected},
	domain.OrderStateValidated:    {domain.OrderStateRiskApproved, domain.OrderStateRejected},
	domain.OrderStateRiskApproved: {domain.OrderStateReady},
}

// CanTransition reports whether from -> to is a legal hop.
func CanTransition(from, to domain.OrderState) bool {
	for _, next := range legalNext[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Step is one planned transition: the target state, the note to record, and
// the payload carried on that hop (validation steps at VALIDATED, rejection
// reason at REJECTED).
type Step struct {
	To              domain.OrderState
	Note            string
	Steps           []domain.ValidationStep
	RejectionReason string
}

// Plan computes the complete transition sequence for an order in CREATED
// given the engine's verdict.
//
// Pass:  VALIDATED -> RISK_APPROVED -> READY.
// Fail:  VALIDATED -> REJECTED. The VALIDATED hop is recorded even on
// rejection, attesting that validation ran; it carries the checklist either
// way.
func Plan(result domain.ValidationResult) []Step {
	if result.Passed {
		return []Step{
			{To: domain.OrderStateValidated, Note: NoteValidated, Steps: result.Steps},
			{To: domain.OrderStateRiskApproved, Note: NoteRiskApproved},
			{To: domain.OrderStateReady, Note: NoteStaged},
		}
	}
	return []Step{
		{To: domain.OrderStateValidated, Note: NoteProcessed, Steps: result.Steps},
		{To: domain.OrderStateRejected, Note: NoteRejected, RejectionReason: result.RejectionReason},
	}
}

// PlanFailure computes the sequence for an order whose validation could not
// be invoked: straight to REJECTED with a generic reason and no VALIDATED
// hop.
func PlanFailure() []Step {
	return []Step{
		{To: domain.OrderStateRejected, Note: NoteEngineDown, RejectionReason: GenericRejectionReason},
	}
}
