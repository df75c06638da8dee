package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quantfloor/deskd/internal/domain"
	"github.com/quantfloor/deskd/internal/lifecycle"
)

// EventChannel is the signal bus channel carrying desk events for the
// WebSocket hub.
const EventChannel = "orders"

// submitRateKey is the rate limiter key bounding order submissions.
const submitRateKey = "orders:submit"

// DeskService orchestrates the order lifecycle: it creates the order,
// invokes the validation engine, and applies the planned transitions to the
// store, publishing an event and writing an audit entry for each hop.
//
// The store, validator, and logger are required; limiter, bus, audit,
// archive, blobs, and pacer are optional and skipped when nil.
type DeskService struct {
	store     domain.OrderStore
	validator Validator
	limiter   domain.RateLimiter
	bus       domain.SignalBus
	audit     domain.AuditStore
	archive   domain.OrderArchive
	blobs     domain.BlobWriter
	pacer     Pacer
	rateLimit int
	logger    *slog.Logger
}

// NewDeskService creates a DeskService with its required dependencies.
func NewDeskService(store domain.OrderStore, validator Validator, logger *slog.Logger) *DeskService {
	return &DeskService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// WithRateLimiter bounds submissions to limit per second.
func (s *DeskService) WithRateLimiter(limiter domain.RateLimiter, limit int) *DeskService {
	s.limiter = limiter
	s.rateLimit = limit
	return s
}

// WithSignalBus publishes desk events for the WebSocket hub.
func (s *DeskService) WithSignalBus(bus domain.SignalBus) *DeskService {
	s.bus = bus
	return s
}

// WithAuditStore records submissions and terminal outcomes.
func (s *DeskService) WithAuditStore(audit domain.AuditStore) *DeskService {
	s.audit = audit
	return s
}

// WithArchive mirrors terminal order snapshots into durable storage.
func (s *DeskService) WithArchive(archive domain.OrderArchive) *DeskService {
	s.archive = archive
	return s
}

// WithBlobWriter enables blotter exports to object storage.
func (s *DeskService) WithBlobWriter(blobs domain.BlobWriter) *DeskService {
	s.blobs = blobs
	return s
}

// WithPacer delays each transition for UI pacing.
func (s *DeskService) WithPacer(pacer Pacer) *DeskService {
	s.pacer = pacer
	return s
}

// Submit runs one intent through the full pipeline and returns the order in
// its terminal state. Business rejection is a normal outcome: the returned
// order is REJECTED with its complete checklist, and the error is nil.
//
// Once a submission begins it runs to a terminal state; context cancellation
// skips the remaining pacing delays but does not abandon the order.
func (s *DeskService) Submit(ctx context.Context, intent domain.OrderIntent) (domain.Order, error) {
	// The HTTP boundary rejects malformed intents before calling Submit, but
	// sim and demo callers reach the service directly; the engine assumes
	// valid enums and positive finite numerics, so guard here as well.
	if err := intent.Validate(); err != nil {
		return domain.Order{}, fmt.Errorf("desk_service: %w", err)
	}

	if s.limiter != nil && s.rateLimit > 0 {
		allowed, err := s.limiter.Allow(ctx, submitRateKey, s.rateLimit, time.Second)
		if err != nil {
			return domain.Order{}, fmt.Errorf("desk_service: rate limiter: %w", err)
		}
		if !allowed {
			return domain.Order{}, domain.ErrRateLimited
		}
	}

	order := domain.NewOrder(uuid.NewString(), intent, time.Now().UTC())
	if err := s.store.Create(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("desk_service: create order: %w", err)
	}

	s.publish(ctx, map[string]any{
		"event":      "order_submitted",
		"order_id":   order.ID,
		"instrument": order.Instrument,
		"orderType":  order.OrderType,
		"state":      order.State,
	})
	s.auditLog(ctx, "order_submitted", map[string]any{
		"order_id":   order.ID,
		"instrument": string(order.Instrument),
		"order_type": string(order.OrderType),
		"quantity":   order.Quantity,
		"strategy":   string(order.Strategy),
	})

	var plan []lifecycle.Step
	result, err := s.validator.Validate(ctx, intent)
	if err != nil {
		s.logger.WarnContext(ctx, "desk_service: validation engine unavailable",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		plan = lifecycle.PlanFailure()
	} else {
		plan = lifecycle.Plan(result)
	}

	from := order.State
	for _, step := range plan {
		if s.pacer != nil {
			// A cancelled context only cuts the pacing short; the submission
			// still runs to its terminal state.
			_ = s.pacer.Pause(ctx, from, step.To)
		}
		if err := s.store.ApplyTransition(ctx, order.ID, step.To, step.Note, step.Steps, step.RejectionReason); err != nil {
			return domain.Order{}, fmt.Errorf("desk_service: apply transition to %s: %w", step.To, err)
		}
		s.publish(ctx, map[string]any{
			"event":    "order_transition",
			"order_id": order.ID,
			"from":     from,
			"to":       step.To,
			"note":     step.Note,
		})
		from = step.To
	}

	final, err := s.store.Get(ctx, order.ID)
	if err != nil {
		// Deleted mid-flight; report the last state we drove it to.
		order.State = from
		return order, nil
	}

	s.auditLog(ctx, "order_"+stateEvent(final.State), map[string]any{
		"order_id":         final.ID,
		"state":            string(final.State),
		"rejection_reason": final.RejectionReason,
	})
	if final.State.Terminal() {
		s.archiveSave(ctx, final)
	}

	s.logger.InfoContext(ctx, "desk_service: order settled",
		slog.String("order_id", final.ID),
		slog.String("instrument", string(final.Instrument)),
		slog.String("state", string(final.State)),
	)

	return final, nil
}

// Get returns a single order.
func (s *DeskService) Get(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("desk_service: get order %q: %w", id, err)
	}
	return order, nil
}

// List returns the blotter, newest first.
func (s *DeskService) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("desk_service: list orders: %w", err)
	}
	return orders, nil
}

// Delete destroys an order on explicit user action.
func (s *DeskService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("desk_service: delete order %q: %w", id, err)
	}
	s.publish(ctx, map[string]any{"event": "order_deleted", "order_id": id})
	s.auditLog(ctx, "order_deleted", map[string]any{"order_id": id})
	return nil
}

// Clear empties the blotter.
func (s *DeskService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("desk_service: clear orders: %w", err)
	}
	s.publish(ctx, map[string]any{"event": "blotter_cleared"})
	s.auditLog(ctx, "blotter_cleared", nil)
	return nil
}

// Stats summarizes the blotter.
func (s *DeskService) Stats(ctx context.Context) (domain.DeskStats, error) {
	counts, err := s.store.CountByState(ctx)
	if err != nil {
		return domain.DeskStats{}, fmt.Errorf("desk_service: count by state: %w", err)
	}

	stats := domain.DeskStats{ByState: counts}
	for state, n := range counts {
		stats.Total += n
		switch state {
		case domain.OrderStateReady:
			stats.Ready += n
		case domain.OrderStateRejected:
			stats.Rejected += n
		default:
			stats.InFlight += n
		}
	}
	if stats.Total > 0 {
		stats.AcceptRatePct = float64(stats.Ready) / float64(stats.Total) * 100
	}
	return stats, nil
}

// ExportBlotter uploads a JSON snapshot of every order to object storage and
// returns the object key. It fails when no blob writer is wired.
func (s *DeskService) ExportBlotter(ctx context.Context) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("desk_service: blob storage: %w", domain.ErrNotConfigured)
	}

	orders, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("desk_service: list orders for export: %w", err)
	}

	snapshot := map[string]any{
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"orders":      orders,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("desk_service: marshal blotter: %w", err)
	}

	key := fmt.Sprintf("blotter/%s.json", time.Now().UTC().Format("20060102T150405Z"))
	if err := s.blobs.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return "", fmt.Errorf("desk_service: export blotter: %w", err)
	}

	s.auditLog(ctx, "blotter_exported", map[string]any{"key": key, "orders": len(orders)})
	s.logger.InfoContext(ctx, "desk_service: blotter exported",
		slog.String("key", key),
		slog.Int("orders", len(orders)),
	)
	return key, nil
}

// publish sends a desk event on the signal bus, logging on failure rather
// than failing the submission.
func (s *DeskService) publish(ctx context.Context, event map[string]any) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, EventChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "desk_service: publish event failed",
			slog.String("error", err.Error()),
		)
	}
}

// auditLog writes an audit entry, logging on failure.
func (s *DeskService) auditLog(ctx context.Context, event string, detail map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "desk_service: audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// archiveSave mirrors a terminal order into durable storage, best-effort.
func (s *DeskService) archiveSave(ctx context.Context, order domain.Order) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(ctx, order); err != nil {
		s.logger.WarnContext(ctx, "desk_service: archive save failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
}

func stateEvent(state domain.OrderState) string {
	switch state {
	case domain.OrderStateReady:
		return "ready"
	case domain.OrderStateRejected:
		return "rejected"
	default:
		return "settled"
	}
}
