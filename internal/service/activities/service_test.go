package activities

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kinship-backend/internal/domain/activity"
	"kinship-backend/internal/domain/shared"
	"kinship-backend/internal/repository/memory"
)

func TestRecord(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("records verified event", func(t *testing.T) {
		svc := NewService(memory.NewActivityStore(), zap.NewNop())

		event, err := svc.Record(ctx, "", "alice", activity.KindHelpCompleted, 4, now, true)
		require.NoError(t, err)

		assert.NotEmpty(t, event.ID)
		assert.Equal(t, "alice", event.MemberID.String())
		assert.Equal(t, activity.KindHelpCompleted, event.Kind)
	})

	t.Run("mints event id when absent", func(t *testing.T) {
		svc := NewService(memory.NewActivityStore(), zap.NewNop())

		event, err := svc.Record(ctx, "", "alice", activity.KindRating, 1, now, true)
		require.NoError(t, err)
		_, err = uuid.Parse(event.ID)
		assert.NoError(t, err)
	})

	t.Run("keeps producer supplied id", func(t *testing.T) {
		svc := NewService(memory.NewActivityStore(), zap.NewNop())
		supplied := uuid.New().String()

		event, err := svc.Record(ctx, supplied, "alice", activity.KindRating, 1, now, true)
		require.NoError(t, err)
		assert.Equal(t, supplied, event.ID)
	})

	t.Run("redelivery with same id is a no-op", func(t *testing.T) {
		store := memory.NewActivityStore()
		svc := NewService(store, zap.NewNop())
		supplied := uuid.New().String()

		_, err := svc.Record(ctx, supplied, "alice", activity.KindRating, 1, now, true)
		require.NoError(t, err)
		_, err = svc.Record(ctx, supplied, "alice", activity.KindRating, 1, now, true)
		require.NoError(t, err)

		events, err := svc.ListByMember(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("rejects unknown kind", func(t *testing.T) {
		svc := NewService(memory.NewActivityStore(), zap.NewNop())

		_, err := svc.Record(ctx, "", "alice", activity.Kind("mystery"), 1, now, true)
		assert.ErrorIs(t, err, shared.ErrUnknownActivityKind)
	})

	t.Run("rejects unverified events", func(t *testing.T) {
		svc := NewService(memory.NewActivityStore(), zap.NewNop())

		_, err := svc.Record(ctx, "", "alice", activity.KindRating, 1, now, false)
		assert.ErrorIs(t, err, shared.ErrUnverifiedActivity)
	})
}

func TestListByMember(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewActivityStore(), zap.NewNop())

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := svc.Record(ctx, "", "alice", activity.KindRating, 1, base.Add(time.Duration(i)*time.Minute), true)
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, "", "bob", activity.KindRating, 1, base, true)
	require.NoError(t, err)

	events, err := svc.ListByMember(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 3)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i-1].OccurredAt.Before(events[i].OccurredAt), "expected newest first")
	}
}
