package domain

import (
	"context"
	"io"
	"time"
)

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// OrderStore owns every Order for its entire life. ApplyTransition is the
// only mutation path after creation and must be atomic with respect to
// concurrent readers: no partial writes are observable.
type OrderStore interface {
	Create(ctx context.Context, order Order) error
	Get(ctx context.Context, id string) (Order, error)
	// List returns all orders, newest first.
	List(ctx context.Context) ([]Order, error)
	// ApplyTransition advances the order and appends to its transition log.
	// It is a silent no-op when the order does not exist.
	ApplyTransition(ctx context.Context, id string, to OrderState, note string, steps []ValidationStep, rejectionReason string) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	CountByState(ctx context.Context) (map[OrderState]int, error)
}

// OrderArchive mirrors order snapshots into durable storage. Implementations
// are best-effort; the in-memory store remains the source of truth.
type OrderArchive interface {
	Save(ctx context.Context, order Order) error
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

// SignalBus carries desk events (submissions, transitions) from the service
// layer to subscribers such as the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns a channel of payloads; it is closed when the context
	// is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter bounds the rate of order submissions per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BlobWriter uploads a blotter export to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
