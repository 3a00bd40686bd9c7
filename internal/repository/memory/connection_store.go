// Package memory provides in-memory repository implementations. They back
// local development and the test suites, and they honor the same
// storage-level contracts as the DynamoDB implementations: conditional
// create over the canonical pair key and first-write-wins resolution.
package memory

import (
	"context"
	"sort"
	"sync"

	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/shared"
)

// ConnectionStore is an in-memory connection.Repository.
type ConnectionStore struct {
	mu      sync.RWMutex
	byID    map[string]*connection.Record
	byPair  map[string]string // canonical pair key -> connection id
}

// NewConnectionStore creates an empty store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{
		byID:   make(map[string]*connection.Record),
		byPair: make(map[string]string),
	}
}

// Create stores a pending record if the pair key is free. The pair check and
// insert happen under one lock, mirroring the atomicity the DynamoDB
// implementation gets from its conditional write.
func (s *ConnectionStore) Create(_ context.Context, record *connection.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byPair[record.PairKey()]; exists {
		return shared.ErrDuplicateConnection
	}
	s.byID[record.ID().String()] = snapshot(record)
	s.byPair[record.PairKey()] = record.ID().String()
	return nil
}

// FindByID returns a copy of the stored record.
func (s *ConnectionStore) FindByID(_ context.Context, id shared.ConnectionID) (*connection.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[id.String()]
	if !ok {
		return nil, shared.ErrConnectionNotFound
	}
	return snapshot(record), nil
}

// FindByPair returns the record for the unordered pair, in any status.
func (s *ConnectionStore) FindByPair(_ context.Context, a, b shared.MemberID) (*connection.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[shared.PairKey(a, b)]
	if !ok {
		return nil, shared.ErrConnectionNotFound
	}
	return snapshot(s.byID[id]), nil
}

// Resolve applies the terminal status if the stored record is still pending.
func (s *ConnectionStore) Resolve(_ context.Context, record *connection.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[record.ID().String()]
	if !ok {
		return shared.ErrConnectionNotFound
	}
	if stored.Status().IsTerminal() {
		return shared.ErrAlreadyResolved
	}
	s.byID[record.ID().String()] = snapshot(record)
	return nil
}

// FindByMember lists records involving the member, newest first.
func (s *ConnectionStore) FindByMember(_ context.Context, memberID shared.MemberID, status *connection.Status, page connection.Page) ([]*connection.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*connection.Record
	for _, record := range s.byID {
		if !record.Involves(memberID) {
			continue
		}
		if status != nil && record.Status() != *status {
			continue
		}
		records = append(records, snapshot(record))
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt().Equal(records[j].CreatedAt()) {
			return records[i].CreatedAt().After(records[j].CreatedAt())
		}
		return records[i].ID().String() < records[j].ID().String()
	})

	if page.Offset >= len(records) {
		return []*connection.Record{}, nil
	}
	records = records[page.Offset:]
	if page.Limit > 0 && len(records) > page.Limit {
		records = records[:page.Limit]
	}
	return records, nil
}

// AcceptedNeighbors returns members with an accepted edge to memberID.
func (s *ConnectionStore) AcceptedNeighbors(_ context.Context, memberID shared.MemberID) ([]shared.MemberID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var neighbors []shared.MemberID
	for _, record := range s.byID {
		if record.IsAcceptedEdge() && record.Involves(memberID) {
			neighbors = append(neighbors, record.Other(memberID))
		}
	}
	return neighbors, nil
}

// RelatedMembers returns members with a record involving memberID in any status.
func (s *ConnectionStore) RelatedMembers(_ context.Context, memberID shared.MemberID) ([]shared.MemberID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var related []shared.MemberID
	for _, record := range s.byID {
		if record.Involves(memberID) {
			related = append(related, record.Other(memberID))
		}
	}
	return related, nil
}

// CountAcceptedByMember returns the member's accepted-edge count.
func (s *ConnectionStore) CountAcceptedByMember(_ context.Context, memberID shared.MemberID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.byID {
		if record.IsAcceptedEdge() && record.Involves(memberID) {
			count++
		}
	}
	return count, nil
}

// snapshot copies a record so callers cannot mutate stored state (and vice
// versa) outside Create/Resolve.
func snapshot(record *connection.Record) *connection.Record {
	return connection.Reconstruct(
		record.ID(),
		record.RequesterID(),
		record.AddresseeID(),
		record.Status(),
		record.CreatedAt(),
		record.RespondedAt(),
	)
}
