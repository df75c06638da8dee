package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfloor/deskd/internal/domain"
)

// OrderArchive implements domain.OrderArchive using PostgreSQL. Orders are
// mirrored as full snapshots: the checklist and transition log are stored as
// JSONB alongside the queryable intent columns.
type OrderArchive struct {
	pool *pgxpool.Pool
}

// NewOrderArchive creates a new OrderArchive backed by the given pool.
func NewOrderArchive(pool *pgxpool.Pool) *OrderArchive {
	return &OrderArchive{pool: pool}
}

// Save upserts the order snapshot keyed by order ID.
func (s *OrderArchive) Save(ctx context.Context, o domain.Order) error {
	stepsJSON, err := json.Marshal(o.ValidationSteps)
	if err != nil {
		return fmt.Errorf("postgres: marshal validation steps: %w", err)
	}
	transitionsJSON, err := json.Marshal(o.Transitions)
	if err != nil {
		return fmt.Errorf("postgres: marshal transitions: %w", err)
	}

	const query = `
		INSERT INTO orders (
			id, instrument, order_type, quantity, price, strategy,
			state, rejection_reason, validation_steps, transitions,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			rejection_reason = EXCLUDED.rejection_reason,
			validation_steps = EXCLUDED.validation_steps,
			transitions = EXCLUDED.transitions,
			updated_at = NOW()`

	_, err = s.pool.Exec(ctx, query,
		o.ID, string(o.Instrument), string(o.OrderType),
		o.Quantity, o.Price, string(o.Strategy),
		string(o.State), o.RejectionReason,
		stepsJSON, transitionsJSON,
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save order %s: %w", o.ID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OrderArchive = (*OrderArchive)(nil)
