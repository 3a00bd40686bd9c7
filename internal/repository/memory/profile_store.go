package memory

import (
	"context"
	"sort"
	"sync"

	"kinship-backend/internal/domain/member"
	"kinship-backend/internal/domain/shared"
)

// ProfileStore is an in-memory member.Reader, seeded by tests and local dev.
type ProfileStore struct {
	mu      sync.RWMutex
	members map[string]member.Member
}

// NewProfileStore creates an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{members: make(map[string]member.Member)}
}

// Put adds or replaces a member profile.
func (s *ProfileStore) Put(m member.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID.String()] = m
}

// FindByID returns a single member's profile.
func (s *ProfileStore) FindByID(_ context.Context, id shared.MemberID) (member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id.String()]
	if !ok {
		return member.Member{}, shared.ErrMemberNotFound
	}
	return m, nil
}

// FindAll returns every member, ordered by id for determinism.
func (s *ProfileStore) FindAll(_ context.Context) ([]member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]member.Member, 0, len(s.members))
	for _, m := range s.members {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.String() < all[j].ID.String()
	})
	return all, nil
}
