package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/shared"
	"kinship-backend/internal/repository/memory"
)

func id(t *testing.T, s string) shared.MemberID {
	t.Helper()
	memberID, err := shared.NewMemberID(s)
	require.NoError(t, err)
	return memberID
}

// acceptEdge persists an accepted connection between the two members.
func acceptEdge(t *testing.T, store *memory.ConnectionStore, a, b shared.MemberID) {
	t.Helper()
	ctx := context.Background()

	record, err := connection.NewRecord(a, b)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, record))

	loaded, err := store.FindByID(ctx, record.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.Respond(connection.StatusAccepted, b))
	require.NoError(t, store.Resolve(ctx, loaded))
}

func TestMutualCount(t *testing.T) {
	ctx := context.Background()

	alice := id(t, "alice")
	bob := id(t, "bob")
	carol := id(t, "carol")
	dave := id(t, "dave")

	t.Run("counts shared accepted neighbors", func(t *testing.T) {
		store := memory.NewConnectionStore()
		calc := NewCalculator(store)

		// carol and dave are each connected to both alice and bob.
		acceptEdge(t, store, alice, carol)
		acceptEdge(t, store, bob, carol)
		acceptEdge(t, store, alice, dave)
		acceptEdge(t, store, dave, bob)

		count, err := calc.MutualCount(ctx, alice, bob)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("is symmetric", func(t *testing.T) {
		store := memory.NewConnectionStore()
		calc := NewCalculator(store)

		acceptEdge(t, store, alice, carol)
		acceptEdge(t, store, bob, carol)

		ab, err := calc.MutualCount(ctx, alice, bob)
		require.NoError(t, err)
		ba, err := calc.MutualCount(ctx, bob, alice)
		require.NoError(t, err)
		assert.Equal(t, ab, ba)
	})

	t.Run("a direct edge is not a mutual", func(t *testing.T) {
		store := memory.NewConnectionStore()
		calc := NewCalculator(store)

		acceptEdge(t, store, alice, bob)

		count, err := calc.MutualCount(ctx, alice, bob)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("endpoints are excluded from the intersection", func(t *testing.T) {
		store := memory.NewConnectionStore()
		calc := NewCalculator(store)

		// Triangle: alice-bob, alice-carol, bob-carol. alice and bob share
		// only carol; neither endpoint counts itself.
		acceptEdge(t, store, alice, bob)
		acceptEdge(t, store, alice, carol)
		acceptEdge(t, store, bob, carol)

		count, err := calc.MutualCount(ctx, alice, bob)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("pending edges do not count", func(t *testing.T) {
		store := memory.NewConnectionStore()
		calc := NewCalculator(store)

		acceptEdge(t, store, alice, carol)
		record, err := connection.NewRecord(bob, carol)
		require.NoError(t, err)
		require.NoError(t, store.Create(ctx, record))

		count, err := calc.MutualCount(ctx, alice, bob)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestMutualCounts(t *testing.T) {
	ctx := context.Background()

	alice := id(t, "alice")
	bob := id(t, "bob")
	carol := id(t, "carol")
	dave := id(t, "dave")

	store := memory.NewConnectionStore()
	calc := NewCalculator(store)

	acceptEdge(t, store, alice, carol)
	acceptEdge(t, store, bob, carol)
	acceptEdge(t, store, alice, dave)

	counts, err := calc.MutualCounts(ctx, alice, []shared.MemberID{bob, dave})
	require.NoError(t, err)

	assert.Equal(t, 1, counts[bob.String()])  // carol
	assert.Equal(t, 0, counts[dave.String()]) // direct edge only

	t.Run("matches per-pair computation", func(t *testing.T) {
		for _, candidate := range []shared.MemberID{bob, dave} {
			single, err := calc.MutualCount(ctx, alice, candidate)
			require.NoError(t, err)
			assert.Equal(t, single, counts[candidate.String()])
		}
	})
}
