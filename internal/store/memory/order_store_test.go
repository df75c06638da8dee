package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfloor/deskd/internal/domain"
)

func testOrder(id string) domain.Order {
	return domain.NewOrder(id, domain.OrderIntent{
		Instrument: domain.InstrumentEquity,
		OrderType:  domain.OrderTypeLimit,
		Quantity:   200,
		Price:      142,
		Strategy:   domain.StrategyMomentum,
	}, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()

	require.NoError(t, store.Create(ctx, testOrder("a")))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, domain.OrderStateCreated, got.State)
	assert.Empty(t, got.Transitions)

	err = store.Create(ctx, testOrder("a"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()
	require.NoError(t, store.Create(ctx, testOrder("a")))
	require.NoError(t, store.ApplyTransition(ctx, "a", domain.OrderStateValidated, "note", nil, ""))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	got.Transitions[0].Note = "tampered"
	got.State = domain.OrderStateRejected

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "note", again.Transitions[0].Note)
	assert.Equal(t, domain.OrderStateValidated, again.State)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, store.Create(ctx, testOrder(id)))
	}

	orders, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "third", orders[0].ID)
	assert.Equal(t, "second", orders[1].ID)
	assert.Equal(t, "first", orders[2].ID)
}

func TestApplyTransition(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 8, 30, 12, 0, 1, 0, time.UTC)
	store := NewOrderStore().WithClock(func() time.Time { return at })
	require.NoError(t, store.Create(ctx, testOrder("a")))

	steps := []domain.ValidationStep{{Check: "Quantity Limits", Passed: true, Detail: "ok"}}
	require.NoError(t, store.ApplyTransition(ctx, "a", domain.OrderStateValidated, "All validation checks passed", steps, ""))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStateValidated, got.State)
	assert.Equal(t, steps, got.ValidationSteps)
	require.Len(t, got.Transitions, 1)
	assert.Equal(t, domain.OrderStateCreated, got.Transitions[0].From)
	assert.Equal(t, domain.OrderStateValidated, got.Transitions[0].To)
	assert.Equal(t, at, got.Transitions[0].Timestamp)

	// The order's state always equals the last transition's target.
	last := got.Transitions[len(got.Transitions)-1]
	assert.Equal(t, got.State, last.To)
}

func TestApplyTransitionMissingOrderIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()

	err := store.ApplyTransition(ctx, "missing", domain.OrderStateValidated, "note", nil, "")
	assert.NoError(t, err)

	orders, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()
	require.NoError(t, store.Create(ctx, testOrder("a")))
	require.NoError(t, store.Create(ctx, testOrder("b")))

	require.NoError(t, store.Delete(ctx, "a"))
	assert.ErrorIs(t, store.Delete(ctx, "a"), domain.ErrNotFound)

	orders, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "b", orders[0].ID)

	require.NoError(t, store.Clear(ctx))
	orders, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCountByState(t *testing.T) {
	ctx := context.Background()
	store := NewOrderStore()
	require.NoError(t, store.Create(ctx, testOrder("a")))
	require.NoError(t, store.Create(ctx, testOrder("b")))
	require.NoError(t, store.Create(ctx, testOrder("c")))
	require.NoError(t, store.ApplyTransition(ctx, "a", domain.OrderStateValidated, "", nil, ""))
	require.NoError(t, store.ApplyTransition(ctx, "a", domain.OrderStateRejected, "", nil, "reason"))

	counts, err := store.CountByState(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[domain.OrderState]int{
		domain.OrderStateCreated:  2,
		domain.OrderStateRejected: 1,
	}, counts)
}
