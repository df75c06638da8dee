package service

import (
	"context"
	"time"

	"github.com/quantfloor/deskd/internal/domain"
)

// Pacer injects a delay before each lifecycle transition so a UI can watch
// orders march through the pipeline. The state machine itself defines no
// timing; pacing is purely presentational.
type Pacer interface {
	Pause(ctx context.Context, from, to domain.OrderState) error
}

// FixedPacer waits a constant duration before every transition.
type FixedPacer struct {
	Delay time.Duration
}

// Pause sleeps for the configured delay or until the context is cancelled.
func (p FixedPacer) Pause(ctx context.Context, _, _ domain.OrderState) error {
	if p.Delay <= 0 {
		return nil
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
