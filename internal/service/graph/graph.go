// Package graph provides pure read computations over the accepted-edge
// graph. Nothing here holds state: every call recomputes from the current
// ledger, so callers that need stability across a render must cache the
// result themselves.
package graph

import (
	"context"

	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/shared"
	appErrors "kinship-backend/internal/errors"
)

// Calculator computes mutual connections over the ledger's accepted edges.
type Calculator struct {
	repo connection.Repository
}

// NewCalculator creates a mutual-connection calculator.
func NewCalculator(repo connection.Repository) *Calculator {
	return &Calculator{repo: repo}
}

// MutualCount returns |neighbors(a) ∩ neighbors(b)|, excluding a and b
// themselves. The result is symmetric in its arguments.
func (c *Calculator) MutualCount(ctx context.Context, a, b shared.MemberID) (int, error) {
	neighborsA, err := c.repo.AcceptedNeighbors(ctx, a)
	if err != nil {
		return 0, appErrors.Wrap(err, "MutualCount", "failed to load neighbors")
	}
	neighborsB, err := c.repo.AcceptedNeighbors(ctx, b)
	if err != nil {
		return 0, appErrors.Wrap(err, "MutualCount", "failed to load neighbors")
	}
	return countIntersection(neighborsA, neighborsB, a, b), nil
}

// MutualCounts computes the mutual count between one member and many
// candidates in a single pass, reusing the member's neighbor set. The
// suggestion generator scores the whole candidate pool, so the per-pair
// variant would reload the same set once per candidate.
func (c *Calculator) MutualCounts(ctx context.Context, member shared.MemberID, candidates []shared.MemberID) (map[string]int, error) {
	base, err := c.repo.AcceptedNeighbors(ctx, member)
	if err != nil {
		return nil, appErrors.Wrap(err, "MutualCounts", "failed to load neighbors")
	}

	counts := make(map[string]int, len(candidates))
	for _, candidate := range candidates {
		neighbors, err := c.repo.AcceptedNeighbors(ctx, candidate)
		if err != nil {
			return nil, appErrors.Wrap(err, "MutualCounts", "failed to load candidate neighbors")
		}
		counts[candidate.String()] = countIntersection(base, neighbors, member, candidate)
	}
	return counts, nil
}

// countIntersection counts members present in both neighbor lists, skipping
// the two endpoints themselves: a cycle through a or b must not count either
// one as its own mutual connection.
func countIntersection(a, b []shared.MemberID, excludeA, excludeB shared.MemberID) int {
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		if id.Equals(excludeA) || id.Equals(excludeB) {
			continue
		}
		set[id.String()] = struct{}{}
	}

	count := 0
	for _, id := range b {
		if id.Equals(excludeA) || id.Equals(excludeB) {
			continue
		}
		if _, ok := set[id.String()]; ok {
			count++
			delete(set, id.String())
		}
	}
	return count
}
