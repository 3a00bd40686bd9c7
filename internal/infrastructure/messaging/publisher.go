// Package messaging provides event publishing infrastructure for the
// Kinship backend. Connection-ledger mutations fan out through EventBridge
// so caches and other services can react without polling the ledger.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"kinship-backend/internal/domain/shared"
)

// eventBridgeBatchLimit is EventBridge's maximum entries per PutEvents call.
const eventBridgeBatchLimit = 10

// EventBridgePublisher implements shared.EventBus using AWS EventBridge.
// Delivery downstream is at-least-once; consumers must tolerate redelivery.
type EventBridgePublisher struct {
	client   *eventbridge.Client
	eventBus string
	source   string
	logger   *zap.Logger
}

// NewEventBridgePublisher creates a new EventBridge publisher.
func NewEventBridgePublisher(client *eventbridge.Client, eventBus, source string, logger *zap.Logger) *EventBridgePublisher {
	if eventBus == "" {
		eventBus = "default"
	}
	if source == "" {
		source = "kinship-backend"
	}
	return &EventBridgePublisher{
		client:   client,
		eventBus: eventBus,
		source:   source,
		logger:   logger,
	}
}

// Publish sends a single domain event.
func (p *EventBridgePublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	return p.PublishBatch(ctx, []shared.DomainEvent{event})
}

// PublishBatch sends events in EventBridge-sized batches.
func (p *EventBridgePublisher) PublishBatch(ctx context.Context, events []shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	for start := 0; start < len(events); start += eventBridgeBatchLimit {
		end := start + eventBridgeBatchLimit
		if end > len(events) {
			end = len(events)
		}
		if err := p.putEvents(ctx, events[start:end]); err != nil {
			return fmt.Errorf("failed to publish event batch: %w", err)
		}
	}
	return nil
}

func (p *EventBridgePublisher) putEvents(ctx context.Context, events []shared.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(events))
	for _, event := range events {
		detail, err := json.Marshal(event.EventData())
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.EventID(), err)
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBus),
			Source:       aws.String(p.source),
			DetailType:   aws.String(event.EventType()),
			Detail:       aws.String(string(detail)),
		})
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to put events: %w", err)
	}

	if out.FailedEntryCount > 0 {
		for i, entry := range out.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("eventbridge entry rejected",
					zap.Int("entry", i),
					zap.String("code", aws.ToString(entry.ErrorCode)),
					zap.String("message", aws.ToString(entry.ErrorMessage)))
			}
		}
		return fmt.Errorf("eventbridge rejected %d of %d events", out.FailedEntryCount, len(entries))
	}
	return nil
}
