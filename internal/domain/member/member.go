// Package member holds the read model for profile attributes. Profiles are
// owned by the profile store; this service only ever reads them, so Member
// is a plain value with set helpers rather than an aggregate.
package member

import (
	"context"
	"strings"

	"kinship-backend/internal/domain/shared"
)

// Member is the slice of a profile the connection core needs: identity,
// location and the skill/interest sets the suggestion generator scores on.
type Member struct {
	ID          shared.MemberID `json:"id"`
	DisplayName string          `json:"displayName"`
	Location    string          `json:"location"`
	Skills      []string        `json:"skills"`
	Interests   []string        `json:"interests"`
}

// SharedSkills counts the skills both members list, case-insensitively.
func (m Member) SharedSkills(other Member) int {
	return overlap(m.Skills, other.Skills)
}

// SharedInterests counts the interests both members list, case-insensitively.
func (m Member) SharedInterests(other Member) int {
	return overlap(m.Interests, other.Interests)
}

// SameLocation reports whether both members declare the same non-empty location.
func (m Member) SameLocation(other Member) bool {
	if m.Location == "" || other.Location == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(m.Location), strings.TrimSpace(other.Location))
}

func overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[normalize(v)] = struct{}{}
	}
	count := 0
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		key := normalize(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := set[key]; ok {
			count++
		}
	}
	return count
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Reader is the read-only port onto the profile store.
type Reader interface {
	// FindByID returns a single member's profile.
	// Fails with shared.ErrMemberNotFound for unknown ids.
	FindByID(ctx context.Context, id shared.MemberID) (Member, error)

	// FindAll returns every member profile. The candidate pool for
	// suggestions is the full community, so this is the profile store's
	// responsibility to keep cheap (it serves a paginated projection).
	FindAll(ctx context.Context) ([]Member, error)
}
