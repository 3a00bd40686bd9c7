package shared

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEvent(t *testing.T) *ConnectionChangedEvent {
	t.Helper()
	alice, err := NewMemberID("alice")
	require.NoError(t, err)
	bob, err := NewMemberID("bob")
	require.NoError(t, err)
	return NewConnectionChangedEvent(EventTypeConnectionRequested, NewConnectionID(), alice, bob, "pending")
}

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestInProcessEventBus(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to type subscriber", func(t *testing.T) {
		bus := NewInProcessEventBusWithRetry(zap.NewNop(), fastRetry())

		var mu sync.Mutex
		var received []string
		bus.Subscribe(EventTypeConnectionRequested, func(_ context.Context, event DomainEvent) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, event.EventID())
			return nil
		})

		event := testEvent(t)
		require.NoError(t, bus.Publish(ctx, event))

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{event.EventID()}, received)
	})

	t.Run("wildcard subscriber sees every type", func(t *testing.T) {
		bus := NewInProcessEventBusWithRetry(zap.NewNop(), fastRetry())

		var mu sync.Mutex
		count := 0
		bus.Subscribe("*", func(context.Context, DomainEvent) error {
			mu.Lock()
			defer mu.Unlock()
			count++
			return nil
		})

		require.NoError(t, bus.Publish(ctx, testEvent(t)))
		require.NoError(t, bus.Publish(ctx, testEvent(t)))

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 2, count)
	})

	t.Run("retries a failing handler", func(t *testing.T) {
		bus := NewInProcessEventBusWithRetry(zap.NewNop(), fastRetry())

		attempts := 0
		bus.Subscribe("*", func(context.Context, DomainEvent) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})

		require.NoError(t, bus.Publish(ctx, testEvent(t)))
		assert.Equal(t, 3, attempts)
	})

	t.Run("a permanently failing handler does not fail the publish", func(t *testing.T) {
		bus := NewInProcessEventBusWithRetry(zap.NewNop(), fastRetry())

		attempts := 0
		bus.Subscribe("*", func(context.Context, DomainEvent) error {
			attempts++
			return errors.New("permanent")
		})
		delivered := false
		bus.Subscribe("*", func(context.Context, DomainEvent) error {
			delivered = true
			return nil
		})

		assert.NoError(t, bus.Publish(ctx, testEvent(t)))
		assert.Equal(t, 3, attempts)
		assert.True(t, delivered, "other subscribers still receive the event")
	})

	t.Run("unrelated type subscriber is skipped", func(t *testing.T) {
		bus := NewInProcessEventBusWithRetry(zap.NewNop(), fastRetry())

		called := false
		bus.Subscribe(EventTypeConnectionAccepted, func(context.Context, DomainEvent) error {
			called = true
			return nil
		})

		require.NoError(t, bus.Publish(ctx, testEvent(t)))
		assert.False(t, called)
	})
}

func TestConnectionChangedEvent(t *testing.T) {
	event := testEvent(t)

	assert.Equal(t, EventTypeConnectionRequested, event.EventType())
	assert.NotEmpty(t, event.EventID())
	assert.Equal(t, event.ConnectionID, event.AggregateID())
	assert.Equal(t, []string{"alice", "bob"}, event.InvolvedMembers())

	data := event.EventData()
	assert.Equal(t, "alice", data["memberA"])
	assert.Equal(t, "bob", data["memberB"])
	assert.Equal(t, "pending", data["newStatus"])
}
