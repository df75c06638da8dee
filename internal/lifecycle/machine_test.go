package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfloor/deskd/internal/domain"
)

func TestPlanOnPass(t *testing.T) {
	steps := []domain.ValidationStep{
		{Check: "Quantity Limits", Passed: true, Detail: "ok"},
	}
	plan := Plan(domain.ValidationResult{Passed: true, Steps: steps})

	require.Len(t, plan, 3)

	assert.Equal(t, domain.OrderStateValidated, plan[0].To)
	assert.Equal(t, NoteValidated, plan[0].Note)
	assert.Equal(t, steps, plan[0].Steps)

	assert.Equal(t, domain.OrderStateRiskApproved, plan[1].To)
	assert.Equal(t, NoteRiskApproved, plan[1].Note)

	assert.Equal(t, domain.OrderStateReady, plan[2].To)
	assert.Equal(t, NoteStaged, plan[2].Note)

	for _, s := range plan {
		assert.Empty(t, s.RejectionReason)
	}
}

func TestPlanOnFail(t *testing.T) {
	steps := []domain.ValidationStep{
		{Check: "Strategy Restriction", Passed: false, Detail: "blocked"},
	}
	plan := Plan(domain.ValidationResult{
		Passed:          false,
		Steps:           steps,
		RejectionReason: `Strategy "ARBITRAGE" is restricted for INDEX orders.`,
	})

	require.Len(t, plan, 2)

	// The VALIDATED hop is recorded even on rejection; it carries the
	// checklist.
	assert.Equal(t, domain.OrderStateValidated, plan[0].To)
	assert.Equal(t, NoteProcessed, plan[0].Note)
	assert.Equal(t, steps, plan[0].Steps)
	assert.Empty(t, plan[0].RejectionReason)

	assert.Equal(t, domain.OrderStateRejected, plan[1].To)
	assert.Equal(t, NoteRejected, plan[1].Note)
	assert.Equal(t, `Strategy "ARBITRAGE" is restricted for INDEX orders.`, plan[1].RejectionReason)
}

func TestPlanFailure(t *testing.T) {
	plan := PlanFailure()

	require.Len(t, plan, 1)
	assert.Equal(t, domain.OrderStateRejected, plan[0].To)
	assert.Equal(t, NoteEngineDown, plan[0].Note)
	assert.Equal(t, GenericRejectionReason, plan[0].RejectionReason)
	assert.Nil(t, plan[0].Steps)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.OrderState
		legal    bool
	}{
		{domain.OrderStateCreated, domain.OrderStateValidated, true},
		{domain.OrderStateCreated, domain.OrderStateRejected, true},
		{domain.OrderStateCreated, domain.OrderStateReady, false},
		{domain.OrderStateValidated, domain.OrderStateRiskApproved, true},
		{domain.OrderStateValidated, domain.OrderStateRejected, true},
		{domain.OrderStateValidated, domain.OrderStateReady, false},
		{domain.OrderStateRiskApproved, domain.OrderStateReady, true},
		{domain.OrderStateRiskApproved, domain.OrderStateRejected, false},
		{domain.OrderStateReady, domain.OrderStateValidated, false},
		{domain.OrderStateRejected, domain.OrderStateValidated, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.legal, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatesHaveNoSuccessors(t *testing.T) {
	all := []domain.OrderState{
		domain.OrderStateCreated,
		domain.OrderStateValidated,
		domain.OrderStateRiskApproved,
		domain.OrderStateReady,
		domain.OrderStateRejected,
	}
	for _, terminal := range []domain.OrderState{domain.OrderStateReady, domain.OrderStateRejected} {
		assert.True(t, terminal.Terminal())
		for _, to := range all {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestPlansEndInTerminalState(t *testing.T) {
	pass := Plan(domain.ValidationResult{Passed: true})
	assert.True(t, pass[len(pass)-1].To.Terminal())

	fail := Plan(domain.ValidationResult{Passed: false, RejectionReason: "r"})
	assert.True(t, fail[len(fail)-1].To.Terminal())

	down := PlanFailure()
	assert.True(t, down[len(down)-1].To.Terminal())
}
