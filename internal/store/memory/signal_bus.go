package memory

import (
	"context"
	"sync"

	"github.com/quantfloor/deskd/internal/domain"
)

// subscriberBuffer is the per-subscriber channel depth. Slow subscribers
// drop messages rather than blocking publishers.
const subscriberBuffer = 128

// SignalBus is an in-process pub/sub bus with the same contract as the Redis
// signal bus, used in sim mode so the WebSocket hub works without Redis.
type SignalBus struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

// NewSignalBus creates an empty bus.
func NewSignalBus() *SignalBus {
	return &SignalBus{
		subs: make(map[string][]chan []byte),
	}
}

// Publish delivers payload to every subscriber of channel. Subscribers with
// full buffers are skipped.
func (b *SignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[channel] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber for channel. The returned channel is
// closed when ctx is cancelled.
func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		subs := b.subs[channel]
		for i, c := range subs {
			if c == ch {
				b.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
