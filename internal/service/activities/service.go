// Package activities provides the ingestion service for verified activity
// events produced by the feed, group, campaign and verification subsystems.
package activities

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kinship-backend/internal/domain/activity"
	"kinship-backend/internal/domain/shared"
	appErrors "kinship-backend/internal/errors"
)

// Service ingests and reads activity events.
type Service interface {
	// Record appends a verified event. The producer may supply its own
	// event id for idempotent retries; when absent one is minted here.
	Record(ctx context.Context, eventID, memberID string, kind activity.Kind, weight float64, occurredAt time.Time, verified bool) (*activity.Event, error)

	// ListByMember returns the member's verified events, newest first.
	ListByMember(ctx context.Context, memberID string) ([]*activity.Event, error)
}

type service struct {
	repo   activity.Repository
	logger *zap.Logger
}

// NewService creates an activity ingestion service.
func NewService(repo activity.Repository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger}
}

func (s *service) Record(ctx context.Context, eventID, memberID string, kind activity.Kind, weight float64, occurredAt time.Time, verified bool) (*activity.Event, error) {
	member, err := shared.ParseMemberID(memberID)
	if err != nil {
		return nil, err
	}
	if eventID == "" {
		eventID = uuid.New().String()
	}

	event, err := activity.NewEvent(eventID, member, kind, weight, occurredAt, verified)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Append(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, "RecordActivity", "failed to append activity event")
	}

	s.logger.Info("activity event recorded",
		zap.String("event_id", event.ID),
		zap.String("member_id", member.String()),
		zap.String("kind", string(kind)))

	return event, nil
}

func (s *service) ListByMember(ctx context.Context, memberID string) ([]*activity.Event, error) {
	member, err := shared.ParseMemberID(memberID)
	if err != nil {
		return nil, err
	}
	events, err := s.repo.FindByMember(ctx, member)
	if err != nil {
		return nil, appErrors.Wrap(err, "ListActivity", "failed to list activity events")
	}
	return events, nil
}
