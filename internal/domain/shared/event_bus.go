package shared

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RetryConfig configures redelivery behavior for event publishing.
type RetryConfig struct {
	MaxAttempts   int           // Maximum delivery attempts per subscriber
	InitialDelay  time.Duration // Initial delay between attempts
	MaxDelay      time.Duration // Maximum delay between attempts
	BackoffFactor float64       // Exponential backoff factor
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// InProcessEventBus is the in-process implementation of EventBus used for
// local fan-out: suggestion cache invalidation, trust-score cache
// invalidation and the WebSocket hub all subscribe here. Delivery is
// at-least-once: a failing handler is retried with backoff, so the same
// event may reach a subscriber more than once.
type InProcessEventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]EventHandler // event type -> handlers; "*" matches all
	retry       RetryConfig
	logger      *zap.Logger
}

// NewInProcessEventBus creates a new in-process event bus.
func NewInProcessEventBus(logger *zap.Logger) *InProcessEventBus {
	return NewInProcessEventBusWithRetry(logger, DefaultRetryConfig())
}

// NewInProcessEventBusWithRetry creates a bus with explicit retry tuning.
func NewInProcessEventBusWithRetry(logger *zap.Logger, retry RetryConfig) *InProcessEventBus {
	return &InProcessEventBus{
		subscribers: make(map[string][]EventHandler),
		retry:       retry,
		logger:      logger,
	}
}

// Subscribe registers a handler for a specific event type. Pass "*" to
// receive every event.
func (b *InProcessEventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish delivers the event to every matching subscriber. A subscriber that
// keeps failing after all retry attempts is logged and skipped; one broken
// subscriber must not block the ledger write path or the other subscribers.
func (b *InProcessEventBus) Publish(ctx context.Context, event DomainEvent) error {
	b.mu.RLock()
	handlers := make([]EventHandler, 0, len(b.subscribers[event.EventType()])+len(b.subscribers["*"]))
	handlers = append(handlers, b.subscribers[event.EventType()]...)
	handlers = append(handlers, b.subscribers["*"]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := b.deliverWithRetry(ctx, event, handler); err != nil {
			b.logger.Error("event delivery failed after retries",
				zap.String("event_id", event.EventID()),
				zap.String("event_type", event.EventType()),
				zap.Error(err))
		}
	}
	return nil
}

// deliverWithRetry attempts delivery with exponential backoff.
func (b *InProcessEventBus) deliverWithRetry(ctx context.Context, event DomainEvent, handler EventHandler) error {
	delay := b.retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= b.retry.MaxAttempts; attempt++ {
		if lastErr = handler(ctx, event); lastErr == nil {
			return nil
		}

		if attempt == b.retry.MaxAttempts {
			break
		}

		b.logger.Warn("event delivery attempt failed, retrying",
			zap.String("event_id", event.EventID()),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * b.retry.BackoffFactor)
		if delay > b.retry.MaxDelay {
			delay = b.retry.MaxDelay
		}
	}
	return lastErr
}
