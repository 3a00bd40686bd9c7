package memory

import (
	"context"
	"sort"
	"sync"

	"kinship-backend/internal/domain/activity"
	"kinship-backend/internal/domain/shared"
)

// ActivityStore is an in-memory activity.Repository.
type ActivityStore struct {
	mu       sync.RWMutex
	byID     map[string]*activity.Event
	byMember map[string][]string // member id -> event ids, append order
}

// NewActivityStore creates an empty store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		byID:     make(map[string]*activity.Event),
		byMember: make(map[string][]string),
	}
}

// Append stores the event. A duplicate event id is a no-op so producers can
// retry blindly.
func (s *ActivityStore) Append(_ context.Context, event *activity.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[event.ID]; exists {
		return nil
	}
	copied := *event
	s.byID[event.ID] = &copied
	key := event.MemberID.String()
	s.byMember[key] = append(s.byMember[key], event.ID)
	return nil
}

// FindByMember returns the member's events, newest first.
func (s *ActivityStore) FindByMember(_ context.Context, memberID shared.MemberID) ([]*activity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byMember[memberID.String()]
	events := make([]*activity.Event, 0, len(ids))
	for _, id := range ids {
		copied := *s.byID[id]
		events = append(events, &copied)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.After(events[j].OccurredAt)
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// Summarize folds the member's events into trust-score inputs.
func (s *ActivityStore) Summarize(_ context.Context, memberID shared.MemberID) (activity.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summary activity.Summary
	for _, id := range s.byMember[memberID.String()] {
		event := s.byID[id]
		switch event.Kind {
		case activity.KindGroupJoined:
			summary.GroupCount++
		case activity.KindCampaignJoined:
			summary.CampaignCount++
		default:
			summary.WeightSum += event.Weight
		}
	}
	return summary, nil
}
