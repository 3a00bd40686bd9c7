package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinship-backend/internal/domain/shared"
)

func mustMemberID(t *testing.T, id string) shared.MemberID {
	t.Helper()
	memberID, err := shared.NewMemberID(id)
	require.NoError(t, err)
	return memberID
}

func TestNewRecord(t *testing.T) {
	alice := "alice"
	bob := "bob"

	t.Run("creates pending record with requested event", func(t *testing.T) {
		record, err := NewRecord(mustMemberID(t, alice), mustMemberID(t, bob))
		require.NoError(t, err)

		assert.Equal(t, StatusPending, record.Status())
		assert.Equal(t, alice, record.RequesterID().String())
		assert.Equal(t, bob, record.AddresseeID().String())
		assert.Nil(t, record.RespondedAt())
		assert.False(t, record.CreatedAt().IsZero())

		events := record.UncommittedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, shared.EventTypeConnectionRequested, events[0].EventType())
	})

	t.Run("rejects self connection", func(t *testing.T) {
		_, err := NewRecord(mustMemberID(t, alice), mustMemberID(t, alice))
		assert.ErrorIs(t, err, shared.ErrSelfConnection)
	})

	t.Run("pair key is direction independent", func(t *testing.T) {
		ab, err := NewRecord(mustMemberID(t, alice), mustMemberID(t, bob))
		require.NoError(t, err)
		ba, err := NewRecord(mustMemberID(t, bob), mustMemberID(t, alice))
		require.NoError(t, err)

		assert.Equal(t, ab.PairKey(), ba.PairKey())
	})
}

func TestRecordRespond(t *testing.T) {
	alice := mustMemberID(t, "alice")
	bob := mustMemberID(t, "bob")
	carol := mustMemberID(t, "carol")

	newPending := func(t *testing.T) *Record {
		record, err := NewRecord(alice, bob)
		require.NoError(t, err)
		record.MarkEventsCommitted()
		return record
	}

	t.Run("addressee accepts", func(t *testing.T) {
		record := newPending(t)
		require.NoError(t, record.Respond(StatusAccepted, bob))

		assert.Equal(t, StatusAccepted, record.Status())
		assert.NotNil(t, record.RespondedAt())
		assert.True(t, record.IsAcceptedEdge())

		events := record.UncommittedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, shared.EventTypeConnectionAccepted, events[0].EventType())
	})

	t.Run("addressee declines", func(t *testing.T) {
		record := newPending(t)
		require.NoError(t, record.Respond(StatusDeclined, bob))

		assert.Equal(t, StatusDeclined, record.Status())
		assert.False(t, record.IsAcceptedEdge())

		events := record.UncommittedEvents()
		require.Len(t, events, 1)
		assert.Equal(t, shared.EventTypeConnectionDeclined, events[0].EventType())
	})

	t.Run("requester cannot respond", func(t *testing.T) {
		record := newPending(t)
		err := record.Respond(StatusAccepted, alice)
		assert.ErrorIs(t, err, shared.ErrNotAddressee)
		assert.Equal(t, StatusPending, record.Status())
	})

	t.Run("third party cannot respond", func(t *testing.T) {
		record := newPending(t)
		err := record.Respond(StatusAccepted, carol)
		assert.ErrorIs(t, err, shared.ErrNotAddressee)
	})

	t.Run("terminal record cannot be resolved again", func(t *testing.T) {
		record := newPending(t)
		require.NoError(t, record.Respond(StatusDeclined, bob))

		err := record.Respond(StatusAccepted, bob)
		assert.ErrorIs(t, err, shared.ErrAlreadyResolved)
		assert.Equal(t, StatusDeclined, record.Status())
	})

	t.Run("rejects unknown decision", func(t *testing.T) {
		record := newPending(t)
		err := record.Respond(Decision("maybe"), bob)
		assert.ErrorIs(t, err, shared.ErrUnknownDecision)

		err = record.Respond(StatusPending, bob)
		assert.ErrorIs(t, err, shared.ErrUnknownDecision)
	})
}

func TestRecordRelationTo(t *testing.T) {
	alice := mustMemberID(t, "alice")
	bob := mustMemberID(t, "bob")

	t.Run("pending is viewer relative", func(t *testing.T) {
		record, err := NewRecord(alice, bob)
		require.NoError(t, err)

		assert.Equal(t, RelationPendingSent, record.RelationTo(alice))
		assert.Equal(t, RelationPendingReceived, record.RelationTo(bob))
	})

	t.Run("terminal states look the same from both sides", func(t *testing.T) {
		record, err := NewRecord(alice, bob)
		require.NoError(t, err)
		require.NoError(t, record.Respond(StatusAccepted, bob))

		assert.Equal(t, RelationAccepted, record.RelationTo(alice))
		assert.Equal(t, RelationAccepted, record.RelationTo(bob))
	})
}

func TestRecordHelpers(t *testing.T) {
	alice := mustMemberID(t, "alice")
	bob := mustMemberID(t, "bob")
	carol := mustMemberID(t, "carol")

	record, err := NewRecord(alice, bob)
	require.NoError(t, err)

	assert.True(t, record.Involves(alice))
	assert.True(t, record.Involves(bob))
	assert.False(t, record.Involves(carol))

	assert.Equal(t, bob, record.Other(alice))
	assert.Equal(t, alice, record.Other(bob))

	assert.NoError(t, record.ValidateInvariants())
}

func TestReconstructRoundTrip(t *testing.T) {
	alice := mustMemberID(t, "alice")
	bob := mustMemberID(t, "bob")

	original, err := NewRecord(alice, bob)
	require.NoError(t, err)
	require.NoError(t, original.Respond(StatusAccepted, bob))

	restored := Reconstruct(original.ID(), original.RequesterID(), original.AddresseeID(),
		original.Status(), original.CreatedAt(), original.RespondedAt())

	assert.Equal(t, original.ID(), restored.ID())
	assert.Equal(t, original.Status(), restored.Status())
	assert.NoError(t, restored.ValidateInvariants())
	assert.Empty(t, restored.UncommittedEvents())
}
