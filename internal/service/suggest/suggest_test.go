package suggest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinship-backend/internal/config"
	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/domain/member"
	"kinship-backend/internal/domain/shared"
	"kinship-backend/internal/repository/memory"
	"kinship-backend/internal/service/graph"
)

type fixture struct {
	profiles *memory.ProfileStore
	ledger   *memory.ConnectionStore
	gen      *Generator
	weights  config.SuggestWeights
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		profiles: memory.NewProfileStore(),
		ledger:   memory.NewConnectionStore(),
		weights:  config.DefaultConfig().Suggest,
	}
	// The provider reads through the fixture so tests can retune weights,
	// mirroring how the config watcher feeds the generator in production.
	f.gen = NewGenerator(f.profiles, f.ledger, graph.NewCalculator(f.ledger),
		func() config.SuggestWeights { return f.weights })
	return f
}

func (f *fixture) addMember(t *testing.T, id, location string, skills, interests []string) shared.MemberID {
	t.Helper()
	memberID, err := shared.NewMemberID(id)
	require.NoError(t, err)
	f.profiles.Put(member.Member{
		ID:          memberID,
		DisplayName: id,
		Location:    location,
		Skills:      skills,
		Interests:   interests,
	})
	return memberID
}

func (f *fixture) connect(t *testing.T, a, b shared.MemberID, decision connection.Status) {
	t.Helper()
	ctx := context.Background()

	record, err := connection.NewRecord(a, b)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Create(ctx, record))

	if decision == connection.StatusPending {
		return
	}
	loaded, err := f.ledger.FindByID(ctx, record.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.Respond(decision, b))
	require.NoError(t, f.ledger.Resolve(ctx, loaded))
}

func TestSuggestExclusions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.addMember(t, "alice", "berlin", nil, nil)
	bob := f.addMember(t, "bob", "berlin", nil, nil)
	carol := f.addMember(t, "carol", "berlin", nil, nil)
	dave := f.addMember(t, "dave", "berlin", nil, nil)
	f.addMember(t, "erin", "berlin", nil, nil)

	f.connect(t, alice, bob, connection.StatusAccepted)
	f.connect(t, alice, carol, connection.StatusPending)
	f.connect(t, dave, alice, connection.StatusDeclined)

	results, err := f.gen.Suggest(ctx, alice.String(), 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "erin", results[0].Member.ID.String())
}

func TestSuggestScoring(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.addMember(t, "alice", "berlin", []string{"go", "sql"}, []string{"cycling"})
	// bob: 1 mutual (via carol), 1 shared skill, same location.
	bob := f.addMember(t, "bob", "berlin", []string{"go"}, nil)
	// dave: 2 shared skills, 1 shared interest, different location.
	f.addMember(t, "dave", "lisbon", []string{"GO", "sql"}, []string{"Cycling"})
	carol := f.addMember(t, "carol", "berlin", nil, nil)

	f.connect(t, alice, carol, connection.StatusAccepted)
	f.connect(t, carol, bob, connection.StatusAccepted)

	results, err := f.gen.Suggest(ctx, alice.String(), 10)
	require.NoError(t, err)
	// carol is excluded (connected); bob and dave remain.
	require.Len(t, results, 2)

	byID := make(map[string]Suggestion, len(results))
	for _, s := range results {
		byID[s.Member.ID.String()] = s
	}

	w := f.weights
	assert.Equal(t, 1*w.Mutuals+1*w.Skills+w.Location, byID["bob"].Score)
	assert.Equal(t, 1, byID["bob"].Mutuals)

	// Skill and interest overlap is case-insensitive.
	assert.Equal(t, 2*w.Skills+1*w.Interests, byID["dave"].Score)
	assert.Equal(t, 0, byID["dave"].Mutuals)
}

func TestSuggestOrdering(t *testing.T) {
	ctx := context.Background()

	t.Run("descending by score", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addMember(t, "alice", "berlin", []string{"go"}, nil)
		f.addMember(t, "strong", "berlin", []string{"go"}, nil)
		f.addMember(t, "weak", "lisbon", nil, nil)

		results, err := f.gen.Suggest(ctx, alice.String(), 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "strong", results[0].Member.ID.String())
		assert.Equal(t, "weak", results[1].Member.ID.String())
	})

	t.Run("ties break on id", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addMember(t, "alice", "berlin", nil, nil)
		f.addMember(t, "zed", "lisbon", nil, nil)
		f.addMember(t, "bob", "lisbon", nil, nil)
		f.addMember(t, "mia", "lisbon", nil, nil)

		results, err := f.gen.Suggest(ctx, alice.String(), 10)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "bob", results[0].Member.ID.String())
		assert.Equal(t, "mia", results[1].Member.ID.String())
		assert.Equal(t, "zed", results[2].Member.ID.String())
	})

	t.Run("repeated calls are deterministic", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addMember(t, "alice", "berlin", nil, nil)
		for _, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
			f.addMember(t, id, "lisbon", nil, nil)
		}

		first, err := f.gen.Suggest(ctx, alice.String(), 10)
		require.NoError(t, err)
		second, err := f.gen.Suggest(ctx, alice.String(), 10)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestSuggestLimits(t *testing.T) {
	ctx := context.Background()

	t.Run("truncates to limit", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addMember(t, "alice", "berlin", nil, nil)
		for _, id := range []string{"n1", "n2", "n3", "n4"} {
			f.addMember(t, id, "lisbon", nil, nil)
		}

		results, err := f.gen.Suggest(ctx, alice.String(), 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("returns shortfall without padding", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addMember(t, "alice", "berlin", nil, nil)
		f.addMember(t, "only", "lisbon", nil, nil)

		results, err := f.gen.Suggest(ctx, alice.String(), 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("zero limit falls back to default", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addMember(t, "alice", "berlin", nil, nil)
		for i := 0; i < f.weights.DefaultLimit+5; i++ {
			f.addMember(t, "candidate-"+string(rune('a'+i)), "lisbon", nil, nil)
		}

		results, err := f.gen.Suggest(ctx, alice.String(), 0)
		require.NoError(t, err)
		assert.Len(t, results, f.weights.DefaultLimit)
	})

	t.Run("limit is capped at max", func(t *testing.T) {
		f := newFixture(t)
		f.weights.MaxLimit = 3
		alice := f.addMember(t, "alice", "berlin", nil, nil)
		for _, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
			f.addMember(t, id, "lisbon", nil, nil)
		}

		results, err := f.gen.Suggest(ctx, alice.String(), 100)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("empty pool yields empty slice", func(t *testing.T) {
		f := newFixture(t)
		alice := f.addMember(t, "alice", "berlin", nil, nil)

		results, err := f.gen.Suggest(ctx, alice.String(), 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
