// Package suggest implements the discovery ranking: members the viewer has
// no history with, ordered by graph proximity and profile affinity.
package suggest

import (
	"context"
	"sort"

	"kinship-backend/internal/config"
	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/member"
	"kinship-backend/internal/domain/shared"
	appErrors "kinship-backend/internal/errors"
	"kinship-backend/internal/service/graph"
)

// Suggestion is a ranked discovery candidate.
type Suggestion struct {
	Member  member.Member `json:"member"`
	Score   float64       `json:"score"`
	Mutuals int           `json:"mutuals"`
}

// WeightsProvider returns the current suggestion weights. Injecting a
// provider instead of a snapshot lets the config watcher retune ranking
// without restarting.
type WeightsProvider func() config.SuggestWeights

// Generator produces ranked member suggestions.
type Generator struct {
	profiles member.Reader
	ledger   connection.Repository
	mutuals  *graph.Calculator
	weights  WeightsProvider
}

// NewGenerator creates a suggestion generator.
func NewGenerator(profiles member.Reader, ledger connection.Repository, mutuals *graph.Calculator, weights WeightsProvider) *Generator {
	return &Generator{profiles: profiles, ledger: ledger, mutuals: mutuals, weights: weights}
}

// Suggest returns up to limit candidates for the member, best first.
//
// The exclusion set is the member plus everyone with a ledger record in ANY
// status: a member who was declined (or who declined the viewer) must never
// be re-surfaced. If fewer than limit candidates remain the full remainder
// is returned; the result is never padded.
func (g *Generator) Suggest(ctx context.Context, memberID string, limit int) ([]Suggestion, error) {
	viewer, err := shared.ParseMemberID(memberID)
	if err != nil {
		return nil, err
	}

	w := g.weights()
	if limit <= 0 {
		limit = w.DefaultLimit
	}
	if limit > w.MaxLimit {
		limit = w.MaxLimit
	}

	viewerProfile, err := g.profiles.FindByID(ctx, viewer)
	if err != nil {
		return nil, appErrors.Wrap(err, "Suggest", "failed to load viewer profile")
	}

	related, err := g.ledger.RelatedMembers(ctx, viewer)
	if err != nil {
		return nil, appErrors.Wrap(err, "Suggest", "failed to load exclusion set")
	}
	excluded := make(map[string]struct{}, len(related)+1)
	excluded[viewer.String()] = struct{}{}
	for _, id := range related {
		excluded[id.String()] = struct{}{}
	}

	all, err := g.profiles.FindAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, "Suggest", "failed to load member pool")
	}

	candidates := make([]member.Member, 0, len(all))
	candidateIDs := make([]shared.MemberID, 0, len(all))
	for _, m := range all {
		if _, skip := excluded[m.ID.String()]; skip {
			continue
		}
		candidates = append(candidates, m)
		candidateIDs = append(candidateIDs, m.ID)
	}
	if len(candidates) == 0 {
		return []Suggestion{}, nil
	}

	mutualCounts, err := g.mutuals.MutualCounts(ctx, viewer, candidateIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, "Suggest", "failed to compute mutual counts")
	}

	suggestions := make([]Suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		mutuals := mutualCounts[candidate.ID.String()]
		score := float64(mutuals)*w.Mutuals +
			float64(viewerProfile.SharedSkills(candidate))*w.Skills +
			float64(viewerProfile.SharedInterests(candidate))*w.Interests
		if viewerProfile.SameLocation(candidate) {
			score += w.Location
		}
		suggestions = append(suggestions, Suggestion{Member: candidate, Score: score, Mutuals: mutuals})
	}

	// Ties break on candidate id so repeated calls over the same ledger
	// render the same list.
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Member.ID.String() < suggestions[j].Member.ID.String()
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}
