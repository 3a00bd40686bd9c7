package activity

import (
	"context"

	"kinship-backend/internal/domain/shared"
)

// Summary aggregates a member's verified activity for trust scoring. Group
// and campaign joins are counted separately because the trust formula caps
// them as independent terms; everything else contributes its weight to
// WeightSum.
type Summary struct {
	GroupCount    int
	CampaignCount int
	WeightSum     float64
}

// Repository is the persistence port for the append-only activity store.
type Repository interface {
	// Append stores a verified event. Appending the same event id twice is
	// a no-op so producers can retry blindly.
	Append(ctx context.Context, event *Event) error

	// FindByMember returns the member's verified events, newest first.
	FindByMember(ctx context.Context, memberID shared.MemberID) ([]*Event, error)

	// Summarize folds the member's events into the counts and weight sum
	// the trust aggregator consumes.
	Summarize(ctx context.Context, memberID shared.MemberID) (Summary, error)
}
