package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfloor/deskd/internal/domain"
	"github.com/quantfloor/deskd/internal/lifecycle"
	"github.com/quantfloor/deskd/internal/risk"
	"github.com/quantfloor/deskd/internal/store/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestDesk() (*DeskService, *memory.OrderStore) {
	store := memory.NewOrderStore()
	desk := NewDeskService(store, NewEngineValidator(risk.NewEngine()), testLogger())
	return desk, store
}

// failingValidator simulates an unreachable validation engine.
type failingValidator struct{}

func (failingValidator) Validate(context.Context, domain.OrderIntent) (domain.ValidationResult, error) {
	return domain.ValidationResult{}, errors.New("engine unreachable")
}

// denyLimiter rejects every submission.
type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func passingIntent() domain.OrderIntent {
	return domain.OrderIntent{
		Instrument: domain.InstrumentEquity,
		OrderType:  domain.OrderTypeLimit,
		Quantity:   200,
		Price:      142,
		Strategy:   domain.StrategyMomentum,
	}
}

func rejectedIntent() domain.OrderIntent {
	return domain.OrderIntent{
		Instrument: domain.InstrumentIndex,
		OrderType:  domain.OrderTypeMarket,
		Quantity:   10,
		Strategy:   domain.StrategyArbitrage,
	}
}

func TestSubmitAcceptedOrder(t *testing.T) {
	ctx := context.Background()
	desk, _ := newTestDesk()

	order, err := desk.Submit(ctx, passingIntent())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, domain.OrderStateReady, order.State)
	assert.Empty(t, order.RejectionReason)
	assert.Len(t, order.ValidationSteps, 5)

	require.Len(t, order.Transitions, 3)
	assert.Equal(t, domain.OrderStateValidated, order.Transitions[0].To)
	assert.Equal(t, lifecycle.NoteValidated, order.Transitions[0].Note)
	assert.Equal(t, domain.OrderStateRiskApproved, order.Transitions[1].To)
	assert.Equal(t, lifecycle.NoteRiskApproved, order.Transitions[1].Note)
	assert.Equal(t, domain.OrderStateReady, order.Transitions[2].To)
	assert.Equal(t, lifecycle.NoteStaged, order.Transitions[2].Note)

	// Each hop starts where the previous ended, and the order's state is the
	// last hop's target.
	assert.Equal(t, domain.OrderStateCreated, order.Transitions[0].From)
	for i := 1; i < len(order.Transitions); i++ {
		assert.Equal(t, order.Transitions[i-1].To, order.Transitions[i].From)
	}
	assert.Equal(t, order.State, order.Transitions[len(order.Transitions)-1].To)
}

func TestSubmitRejectedOrder(t *testing.T) {
	ctx := context.Background()
	desk, _ := newTestDesk()

	order, err := desk.Submit(ctx, rejectedIntent())
	require.NoError(t, err, "a business rejection is a normal outcome")

	assert.Equal(t, domain.OrderStateRejected, order.State)
	assert.Equal(t, `Strategy "ARBITRAGE" is restricted for INDEX orders.`, order.RejectionReason)
	assert.Len(t, order.ValidationSteps, 5)

	require.Len(t, order.Transitions, 2)
	assert.Equal(t, domain.OrderStateValidated, order.Transitions[0].To)
	assert.Equal(t, lifecycle.NoteProcessed, order.Transitions[0].Note)
	assert.Equal(t, domain.OrderStateRejected, order.Transitions[1].To)
	assert.Equal(t, lifecycle.NoteRejected, order.Transitions[1].Note)
}

func TestSubmitRejectsInvalidIntent(t *testing.T) {
	ctx := context.Background()
	desk, store := newTestDesk()

	tests := []struct {
		name   string
		intent domain.OrderIntent
	}{
		{"zero quantity", domain.OrderIntent{
			Instrument: domain.InstrumentEquity,
			OrderType:  domain.OrderTypeMarket,
			Quantity:   0,
			Strategy:   domain.StrategyMomentum,
		}},
		{"negative quantity", domain.OrderIntent{
			Instrument: domain.InstrumentEquity,
			OrderType:  domain.OrderTypeMarket,
			Quantity:   -5,
			Strategy:   domain.StrategyMomentum,
		}},
		{"unknown instrument", domain.OrderIntent{
			Instrument: domain.Instrument("BOND"),
			OrderType:  domain.OrderTypeMarket,
			Quantity:   10,
			Strategy:   domain.StrategyMomentum,
		}},
		{"limit without price", domain.OrderIntent{
			Instrument: domain.InstrumentIndex,
			OrderType:  domain.OrderTypeLimit,
			Quantity:   10,
			Strategy:   domain.StrategyMomentum,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := desk.Submit(ctx, tt.intent)
			assert.ErrorIs(t, err, domain.ErrInvalidIntent)
		})
	}

	// No order reaches the store on a structural rejection.
	orders, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSubmitEngineFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	desk := NewDeskService(store, failingValidator{}, testLogger())

	order, err := desk.Submit(ctx, passingIntent())
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStateRejected, order.State)
	assert.Equal(t, lifecycle.GenericRejectionReason, order.RejectionReason)
	assert.Empty(t, order.ValidationSteps, "no checklist when the engine never ran")

	// Straight to REJECTED, no VALIDATED hop.
	require.Len(t, order.Transitions, 1)
	assert.Equal(t, domain.OrderStateCreated, order.Transitions[0].From)
	assert.Equal(t, domain.OrderStateRejected, order.Transitions[0].To)
	assert.Equal(t, lifecycle.NoteEngineDown, order.Transitions[0].Note)
}

func TestSubmitRateLimited(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOrderStore()
	desk := NewDeskService(store, NewEngineValidator(risk.NewEngine()), testLogger()).
		WithRateLimiter(denyLimiter{}, 1)

	_, err := desk.Submit(ctx, passingIntent())
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	orders, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders, "no order is created when rate limited")
}

func TestSubmitPublishesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := memory.NewSignalBus()
	events, err := bus.Subscribe(ctx, EventChannel)
	require.NoError(t, err)

	store := memory.NewOrderStore()
	desk := NewDeskService(store, NewEngineValidator(risk.NewEngine()), testLogger()).
		WithSignalBus(bus)

	_, err = desk.Submit(ctx, passingIntent())
	require.NoError(t, err)

	// order_submitted plus one event per transition.
	for i := 0; i < 4; i++ {
		select {
		case <-events:
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	desk, _ := newTestDesk()

	order, err := desk.Submit(ctx, passingIntent())
	require.NoError(t, err)

	require.NoError(t, desk.Delete(ctx, order.ID))
	_, err = desk.Get(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = desk.Submit(ctx, passingIntent())
	require.NoError(t, err)
	require.NoError(t, desk.Clear(ctx))

	orders, err := desk.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	desk, _ := newTestDesk()

	_, err := desk.Submit(ctx, passingIntent())
	require.NoError(t, err)
	_, err = desk.Submit(ctx, passingIntent())
	require.NoError(t, err)
	_, err = desk.Submit(ctx, rejectedIntent())
	require.NoError(t, err)

	stats, err := desk.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Ready)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 0, stats.InFlight)
	assert.InDelta(t, 66.67, stats.AcceptRatePct, 0.01)
	assert.Equal(t, 2, stats.ByState[domain.OrderStateReady])
	assert.Equal(t, 1, stats.ByState[domain.OrderStateRejected])
}

func TestExportBlotterWithoutStorage(t *testing.T) {
	ctx := context.Background()
	desk, _ := newTestDesk()

	_, err := desk.ExportBlotter(ctx)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestFixedPacerRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := FixedPacer{Delay: time.Hour}
	start := time.Now()
	err := p.Pause(ctx, domain.OrderStateCreated, domain.OrderStateValidated)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
