package di

import (
	"context"

	"kinship-backend/internal/domain/shared"
)

// fanoutBus publishes each event to every underlying bus. Local subscribers
// (the WebSocket hub) and EventBridge both see every ledger mutation;
// a failure on one bus does not stop delivery to the others.
type fanoutBus struct {
	buses []shared.EventBus
}

func newFanoutBus(buses ...shared.EventBus) shared.EventBus {
	return &fanoutBus{buses: buses}
}

func (f *fanoutBus) Publish(ctx context.Context, event shared.DomainEvent) error {
	var firstErr error
	for _, bus := range f.buses {
		if err := bus.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
