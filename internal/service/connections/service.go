// Package connections provides the application service for the connection
// ledger: it validates commands, drives the Record aggregate, persists
// through the repository and hands the resulting domain events to the
// notification layer.
package connections

import (
	"context"

	"go.uber.org/zap"

	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/shared"
	appErrors "kinship-backend/internal/errors"
)

// Service defines the ledger's business operations.
type Service interface {
	// SendRequest creates a pending connection request from requester to addressee.
	SendRequest(ctx context.Context, requesterID, addresseeID string) (*connection.Record, error)

	// Respond resolves a pending request with the addressee's decision.
	Respond(ctx context.Context, connectionID, respondingMemberID string, decision connection.Decision) (*connection.Record, error)

	// StatusBetween returns the viewer-relative relation between two members.
	StatusBetween(ctx context.Context, viewerID, otherID string) (connection.RelationStatus, error)

	// ListConnections lists the member's records, optionally filtered by status.
	ListConnections(ctx context.Context, memberID string, status *connection.Status, page connection.Page) ([]*connection.Record, error)

	// Neighbors returns the members with an accepted edge to memberID.
	Neighbors(ctx context.Context, memberID string) ([]shared.MemberID, error)
}

// service implements Service.
type service struct {
	repo   connection.Repository
	bus    shared.EventBus
	logger *zap.Logger
}

// NewService creates a ledger service.
func NewService(repo connection.Repository, bus shared.EventBus, logger *zap.Logger) Service {
	return &service{repo: repo, bus: bus, logger: logger}
}

// SendRequest validates and persists a new pending record.
//
// Duplicate detection happens twice on purpose. The pre-check via FindByPair
// gives the common case a precise error without a write; the repository's
// conditional create is the authoritative guard that still holds when two
// clients race past the pre-check, because clients are independent processes
// and cannot be serialized here.
func (s *service) SendRequest(ctx context.Context, requesterID, addresseeID string) (*connection.Record, error) {
	requester, err := shared.ParseMemberID(requesterID)
	if err != nil {
		return nil, err
	}
	addressee, err := shared.ParseMemberID(addresseeID)
	if err != nil {
		return nil, err
	}

	record, err := connection.NewRecord(requester, addressee)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByPair(ctx, requester, addressee); err == nil {
		return nil, appErrors.Wrap(shared.ErrDuplicateConnection, "SendRequest", "pair already has a connection record")
	} else if !appErrors.IsNotFound(err) {
		return nil, appErrors.Wrap(err, "SendRequest", "failed to check for existing record")
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, "SendRequest", "failed to create connection record")
	}

	s.publishEvents(ctx, record)

	s.logger.Info("connection request sent",
		zap.String("connection_id", record.ID().String()),
		zap.String("requester_id", requester.String()),
		zap.String("addressee_id", addressee.String()))

	return record, nil
}

// Respond resolves a pending request. The aggregate enforces the state
// machine and authorization; the repository's conditional update enforces
// first-write-wins against a concurrent responder.
func (s *service) Respond(ctx context.Context, connectionID, respondingMemberID string, decision connection.Decision) (*connection.Record, error) {
	id, err := shared.ParseConnectionID(connectionID)
	if err != nil {
		return nil, err
	}
	responder, err := shared.ParseMemberID(respondingMemberID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, "Respond", "failed to load connection record")
	}

	if err := record.Respond(decision, responder); err != nil {
		return nil, err
	}

	if err := s.repo.Resolve(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, "Respond", "failed to persist resolution")
	}

	s.publishEvents(ctx, record)

	s.logger.Info("connection request resolved",
		zap.String("connection_id", record.ID().String()),
		zap.String("decision", string(decision)),
		zap.String("responder_id", responder.String()))

	return record, nil
}

// StatusBetween maps the pair's record (if any) to the viewer's perspective.
func (s *service) StatusBetween(ctx context.Context, viewerID, otherID string) (connection.RelationStatus, error) {
	viewer, err := shared.ParseMemberID(viewerID)
	if err != nil {
		return connection.RelationNone, err
	}
	other, err := shared.ParseMemberID(otherID)
	if err != nil {
		return connection.RelationNone, err
	}
	if viewer.Equals(other) {
		return connection.RelationNone, nil
	}

	record, err := s.repo.FindByPair(ctx, viewer, other)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return connection.RelationNone, nil
		}
		return connection.RelationNone, appErrors.Wrap(err, "StatusBetween", "failed to load pair record")
	}
	return record.RelationTo(viewer), nil
}

// ListConnections lists records involving the member.
func (s *service) ListConnections(ctx context.Context, memberID string, status *connection.Status, page connection.Page) ([]*connection.Record, error) {
	member, err := shared.ParseMemberID(memberID)
	if err != nil {
		return nil, err
	}
	if page.Limit <= 0 {
		page = connection.DefaultPage
	}
	records, err := s.repo.FindByMember(ctx, member, status, page)
	if err != nil {
		return nil, appErrors.Wrap(err, "ListConnections", "failed to list connection records")
	}
	return records, nil
}

// Neighbors returns the member's accepted-edge neighbor set.
func (s *service) Neighbors(ctx context.Context, memberID string) ([]shared.MemberID, error) {
	member, err := shared.ParseMemberID(memberID)
	if err != nil {
		return nil, err
	}
	neighbors, err := s.repo.AcceptedNeighbors(ctx, member)
	if err != nil {
		return nil, appErrors.Wrap(err, "Neighbors", "failed to load neighbors")
	}
	return neighbors, nil
}

// publishEvents hands the aggregate's uncommitted events to the bus. The
// write has already been persisted; a publish failure is logged by the bus
// and subscribers fall back to on-demand re-fetch, so the command itself
// does not fail.
func (s *service) publishEvents(ctx context.Context, record *connection.Record) {
	for _, event := range record.UncommittedEvents() {
		if err := s.bus.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish connection event",
				zap.String("event_type", event.EventType()),
				zap.String("connection_id", record.ID().String()),
				zap.Error(err))
		}
	}
	record.MarkEventsCommitted()
}
