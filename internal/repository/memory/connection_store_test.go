package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/shared"
)

func memberID(t *testing.T, id string) shared.MemberID {
	t.Helper()
	memberID, err := shared.NewMemberID(id)
	require.NoError(t, err)
	return memberID
}

func pending(t *testing.T, store *ConnectionStore, requester, addressee string) *connection.Record {
	t.Helper()
	record, err := connection.NewRecord(memberID(t, requester), memberID(t, addressee))
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), record))
	return record
}

func TestConnectionStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and finds by id and pair", func(t *testing.T) {
		store := NewConnectionStore()
		record := pending(t, store, "alice", "bob")

		byID, err := store.FindByID(ctx, record.ID())
		require.NoError(t, err)
		assert.Equal(t, record.ID(), byID.ID())

		byPair, err := store.FindByPair(ctx, memberID(t, "bob"), memberID(t, "alice"))
		require.NoError(t, err)
		assert.Equal(t, record.ID(), byPair.ID())
	})

	t.Run("enforces pair uniqueness in both directions", func(t *testing.T) {
		store := NewConnectionStore()
		pending(t, store, "alice", "bob")

		reverse, err := connection.NewRecord(memberID(t, "bob"), memberID(t, "alice"))
		require.NoError(t, err)
		assert.ErrorIs(t, store.Create(ctx, reverse), shared.ErrDuplicateConnection)
	})

	t.Run("missing lookups return not found", func(t *testing.T) {
		store := NewConnectionStore()

		_, err := store.FindByID(ctx, shared.NewConnectionID())
		assert.ErrorIs(t, err, shared.ErrConnectionNotFound)

		_, err = store.FindByPair(ctx, memberID(t, "alice"), memberID(t, "bob"))
		assert.ErrorIs(t, err, shared.ErrConnectionNotFound)
	})

	t.Run("returned records are snapshots", func(t *testing.T) {
		store := NewConnectionStore()
		record := pending(t, store, "alice", "bob")

		loaded, err := store.FindByID(ctx, record.ID())
		require.NoError(t, err)
		require.NoError(t, loaded.Respond(connection.StatusAccepted, memberID(t, "bob")))

		// Mutating the snapshot must not leak into the store.
		stored, err := store.FindByID(ctx, record.ID())
		require.NoError(t, err)
		assert.Equal(t, connection.StatusPending, stored.Status())
	})
}

func TestConnectionStoreResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the first resolution only", func(t *testing.T) {
		store := NewConnectionStore()
		record := pending(t, store, "alice", "bob")

		first, err := store.FindByID(ctx, record.ID())
		require.NoError(t, err)
		require.NoError(t, first.Respond(connection.StatusAccepted, memberID(t, "bob")))
		require.NoError(t, store.Resolve(ctx, first))

		// A stale snapshot resolved after the fact must lose.
		stale := connection.Reconstruct(record.ID(), record.RequesterID(), record.AddresseeID(),
			connection.StatusPending, record.CreatedAt(), nil)
		require.NoError(t, stale.Respond(connection.StatusDeclined, memberID(t, "bob")))
		assert.ErrorIs(t, store.Resolve(ctx, stale), shared.ErrAlreadyResolved)

		current, err := store.FindByID(ctx, record.ID())
		require.NoError(t, err)
		assert.Equal(t, connection.StatusAccepted, current.Status())
	})

	t.Run("resolving a missing record is not found", func(t *testing.T) {
		store := NewConnectionStore()
		record, err := connection.NewRecord(memberID(t, "alice"), memberID(t, "bob"))
		require.NoError(t, err)
		require.NoError(t, record.Respond(connection.StatusAccepted, memberID(t, "bob")))

		assert.ErrorIs(t, store.Resolve(ctx, record), shared.ErrConnectionNotFound)
	})
}

func TestConnectionStoreQueries(t *testing.T) {
	ctx := context.Background()
	store := NewConnectionStore()

	accept := func(requester, addressee string) {
		record := pending(t, store, requester, addressee)
		loaded, err := store.FindByID(ctx, record.ID())
		require.NoError(t, err)
		require.NoError(t, loaded.Respond(connection.StatusAccepted, memberID(t, addressee)))
		require.NoError(t, store.Resolve(ctx, loaded))
	}
	decline := func(requester, addressee string) {
		record := pending(t, store, requester, addressee)
		loaded, err := store.FindByID(ctx, record.ID())
		require.NoError(t, err)
		require.NoError(t, loaded.Respond(connection.StatusDeclined, memberID(t, addressee)))
		require.NoError(t, store.Resolve(ctx, loaded))
	}

	accept("alice", "bob")
	accept("carol", "alice")
	decline("alice", "dave")
	pending(t, store, "erin", "alice")

	t.Run("FindByMember returns all statuses", func(t *testing.T) {
		records, err := store.FindByMember(ctx, memberID(t, "alice"), nil, connection.DefaultPage)
		require.NoError(t, err)
		assert.Len(t, records, 4)
	})

	t.Run("FindByMember filters by status", func(t *testing.T) {
		status := connection.StatusDeclined
		records, err := store.FindByMember(ctx, memberID(t, "alice"), &status, connection.DefaultPage)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "dave", records[0].AddresseeID().String())
	})

	t.Run("FindByMember paginates with offset", func(t *testing.T) {
		first, err := store.FindByMember(ctx, memberID(t, "alice"), nil, connection.Page{Limit: 3})
		require.NoError(t, err)
		rest, err := store.FindByMember(ctx, memberID(t, "alice"), nil, connection.Page{Limit: 3, Offset: 3})
		require.NoError(t, err)
		assert.Len(t, first, 3)
		assert.Len(t, rest, 1)
	})

	t.Run("AcceptedNeighbors ignores pending and declined", func(t *testing.T) {
		neighbors, err := store.AcceptedNeighbors(ctx, memberID(t, "alice"))
		require.NoError(t, err)

		ids := make([]string, 0, len(neighbors))
		for _, n := range neighbors {
			ids = append(ids, n.String())
		}
		assert.ElementsMatch(t, []string{"bob", "carol"}, ids)
	})

	t.Run("RelatedMembers covers every status", func(t *testing.T) {
		related, err := store.RelatedMembers(ctx, memberID(t, "alice"))
		require.NoError(t, err)

		ids := make([]string, 0, len(related))
		for _, n := range related {
			ids = append(ids, n.String())
		}
		assert.ElementsMatch(t, []string{"bob", "carol", "dave", "erin"}, ids)
	})

	t.Run("CountAcceptedByMember", func(t *testing.T) {
		count, err := store.CountAcceptedByMember(ctx, memberID(t, "alice"))
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = store.CountAcceptedByMember(ctx, memberID(t, "nobody"))
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
