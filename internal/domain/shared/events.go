package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an important business occurrence in the domain.
// Every mutation of the connection ledger emits exactly one event; the
// notification layer fans it out to subscribers with at-least-once delivery,
// so consumers must treat redelivery as a no-op.
type DomainEvent interface {
	// EventID returns a unique identifier for this event instance
	EventID() string

	// EventType returns the type of event (e.g., "ConnectionRequested")
	EventType() string

	// AggregateID returns the ID of the aggregate that generated this event
	AggregateID() string

	// Timestamp returns when the event occurred
	Timestamp() time.Time

	// EventData returns the event-specific payload for serialization
	EventData() map[string]interface{}
}

// BaseEvent provides common functionality for all domain events.
type BaseEvent struct {
	eventID     string
	eventType   string
	aggregateID string
	timestamp   time.Time
}

// EventID returns the unique event identifier.
func (e BaseEvent) EventID() string {
	return e.eventID
}

// EventType returns the type of event.
func (e BaseEvent) EventType() string {
	return e.eventType
}

// AggregateID returns the aggregate identifier.
func (e BaseEvent) AggregateID() string {
	return e.aggregateID
}

// Timestamp returns the event timestamp.
func (e BaseEvent) Timestamp() time.Time {
	return e.timestamp
}

// NewBaseEvent creates a new base event with common fields.
func NewBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New().String(),
		eventType:   eventType,
		aggregateID: aggregateID,
		timestamp:   time.Now(),
	}
}

// Connection event types.
const (
	EventTypeConnectionRequested = "ConnectionRequested"
	EventTypeConnectionAccepted  = "ConnectionAccepted"
	EventTypeConnectionDeclined  = "ConnectionDeclined"
)

// ConnectionChangedEvent is fired when a connection record is created or
// transitions state. MemberA is always the requester and MemberB the
// addressee, regardless of who triggered the transition.
type ConnectionChangedEvent struct {
	BaseEvent
	ConnectionID string `json:"connectionId"`
	MemberA      string `json:"memberA"`
	MemberB      string `json:"memberB"`
	NewStatus    string `json:"newStatus"`
}

// NewConnectionChangedEvent creates an event for a ledger mutation.
func NewConnectionChangedEvent(eventType string, connectionID ConnectionID, requester, addressee MemberID, newStatus string) *ConnectionChangedEvent {
	return &ConnectionChangedEvent{
		BaseEvent:    NewBaseEvent(eventType, connectionID.String()),
		ConnectionID: connectionID.String(),
		MemberA:      requester.String(),
		MemberB:      addressee.String(),
		NewStatus:    newStatus,
	}
}

// EventData returns the event payload for serialization.
func (e *ConnectionChangedEvent) EventData() map[string]interface{} {
	return map[string]interface{}{
		"connectionId": e.ConnectionID,
		"memberA":      e.MemberA,
		"memberB":      e.MemberB,
		"newStatus":    e.NewStatus,
	}
}

// InvolvedMembers returns both members touched by the change. Subscribers use
// this to invalidate per-member caches (suggestions, trust scores) for both
// sides of the pair.
func (e *ConnectionChangedEvent) InvolvedMembers() []string {
	return []string{e.MemberA, e.MemberB}
}

// EventBus publishes domain events to interested subscribers.
type EventBus interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// EventHandler consumes domain events. Handlers must be idempotent: the bus
// guarantees at-least-once delivery, never exactly-once.
type EventHandler func(ctx context.Context, event DomainEvent) error
