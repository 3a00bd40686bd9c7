// Package activity defines the verified activity events that feed the trust
// score. Events are produced by subsystems outside this service (feed,
// campaigns, groups, verification) and are append-only: once recorded, an
// event is immutable.
package activity

import (
	"time"

	"kinship-backend/internal/domain/shared"
)

// Kind is a closed tagged variant of activity sources. New kinds require an
// explicit, reviewed addition here and a weight entry in the configuration;
// unknown kinds are rejected at the boundary rather than silently scored.
type Kind string

const (
	KindVerification   Kind = "verification"
	KindHelpCompleted  Kind = "help_completed"
	KindRating         Kind = "rating"
	KindGroupJoined    Kind = "group_joined"
	KindCampaignJoined Kind = "campaign_joined"
)

// Kinds lists every known kind, in a stable order.
func Kinds() []Kind {
	return []Kind{KindVerification, KindHelpCompleted, KindRating, KindGroupJoined, KindCampaignJoined}
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindVerification, KindHelpCompleted, KindRating, KindGroupJoined, KindCampaignJoined:
		return true
	}
	return false
}

// Event is a single verified activity record for a member.
type Event struct {
	ID         string          `json:"id"`
	MemberID   shared.MemberID `json:"memberId"`
	Kind       Kind            `json:"kind"`
	Weight     float64         `json:"weight"`
	OccurredAt time.Time       `json:"occurredAt"`
	Verified   bool            `json:"verified"`
}

// NewEvent validates and builds an event. Only verified events are accepted;
// unverified activity never enters the store, so readers do not need to
// filter.
func NewEvent(id string, memberID shared.MemberID, kind Kind, weight float64, occurredAt time.Time, verified bool) (*Event, error) {
	if !kind.IsValid() {
		return nil, shared.ErrUnknownActivityKind
	}
	if !verified {
		return nil, shared.ErrUnverifiedActivity
	}
	if memberID.IsEmpty() {
		return nil, shared.ErrEmptyMemberID
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return &Event{
		ID:         id,
		MemberID:   memberID,
		Kind:       kind,
		Weight:     weight,
		OccurredAt: occurredAt,
		Verified:   true,
	}, nil
}

// IsMembership reports whether the event contributes to the group or
// campaign participation counts rather than the summed activity term.
func (e *Event) IsMembership() bool {
	return e.Kind == KindGroupJoined || e.Kind == KindCampaignJoined
}
