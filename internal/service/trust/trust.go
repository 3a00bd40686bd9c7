// Package trust implements the trust score aggregator: one bounded [0,100]
// reputation figure per member, recomputed from current inputs on every
// read so it can never silently go stale.
package trust

import (
	"context"
	"math"

	"kinship-backend/internal/config"
	"kinship-backend/internal/domain/activity"
	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/shared"
	appErrors "kinship-backend/internal/errors"
)

// Score is the computed trust score with its per-term decomposition. The
// profile page shows the breakdown next to the total; each term is the
// post-cap contribution, so they sum to the pre-clamp score.
type Score struct {
	Value          int     `json:"value"`
	Base           float64 `json:"base"`
	ConnectionTerm float64 `json:"connectionTerm"`
	GroupTerm      float64 `json:"groupTerm"`
	CampaignTerm   float64 `json:"campaignTerm"`
	ActivityTerm   float64 `json:"activityTerm"`

	AcceptedConnections int `json:"acceptedConnections"`
	Groups              int `json:"groups"`
	Campaigns           int `json:"campaigns"`
}

// WeightsProvider returns the current trust weights.
type WeightsProvider func() config.TrustWeights

// Aggregator combines ledger statistics with verified activity into a
// single bounded score.
type Aggregator struct {
	ledger   connection.Repository
	activity activity.Repository
	weights  WeightsProvider
}

// NewAggregator creates a trust score aggregator.
func NewAggregator(ledger connection.Repository, activityRepo activity.Repository, weights WeightsProvider) *Aggregator {
	return &Aggregator{ledger: ledger, activity: activityRepo, weights: weights}
}

// Compute returns the member's current trust score.
//
// Each capped term is clamped independently before summation so no single
// signal can dominate, and the final clamp guarantees the [0,100] bound
// regardless of input volume. With non-negative weights (enforced by config
// validation) the formula is monotonic non-decreasing in every input.
func (a *Aggregator) Compute(ctx context.Context, memberID string) (Score, error) {
	member, err := shared.ParseMemberID(memberID)
	if err != nil {
		return Score{}, err
	}

	accepted, err := a.ledger.CountAcceptedByMember(ctx, member)
	if err != nil {
		return Score{}, appErrors.Wrap(err, "ComputeTrustScore", "failed to count accepted connections")
	}

	summary, err := a.activity.Summarize(ctx, member)
	if err != nil {
		return Score{}, appErrors.Wrap(err, "ComputeTrustScore", "failed to summarize activity")
	}

	w := a.weights()
	score := Score{
		Base:                w.Base,
		ConnectionTerm:      cappedTerm(float64(accepted), w.PerConnection, w.ConnectionCap),
		GroupTerm:           cappedTerm(float64(summary.GroupCount), w.PerGroup, w.GroupCap),
		CampaignTerm:        cappedTerm(float64(summary.CampaignCount), w.PerCampaign, w.CampaignCap),
		ActivityTerm:        summary.WeightSum,
		AcceptedConnections: accepted,
		Groups:              summary.GroupCount,
		Campaigns:           summary.CampaignCount,
	}

	total := score.Base + score.ConnectionTerm + score.GroupTerm + score.CampaignTerm + score.ActivityTerm
	score.Value = int(math.Round(clamp(total, 0, 100)))
	return score, nil
}

// cappedTerm clamps count*per to its cap before the terms are summed.
func cappedTerm(count, per, limit float64) float64 {
	return math.Min(limit, count*per)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
