// Package supabase implements the profile-store reader against the hosted
// Postgres the rest of the product keeps member profiles in. The core only
// ever reads profiles; writes stay with the profile subsystem.
package supabase

import (
	"context"
	"encoding/json"

	"github.com/sony/gobreaker"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"kinship-backend/internal/domain/member"
	"kinship-backend/internal/domain/shared"
	appErrors "kinship-backend/internal/errors"
)

// memberRow mirrors the members projection served to this service.
type memberRow struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Location    string   `json:"location"`
	Skills      []string `json:"skills"`
	Interests   []string `json:"interests"`
}

// ProfileReader implements member.Reader on top of the Supabase REST API.
// All calls run through a circuit breaker: the profile store is a separate
// service, and suggestion traffic must not hammer it while it is down.
type ProfileReader struct {
	client  *supa.Client
	table   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewProfileReader creates a reader for the given members table.
func NewProfileReader(client *supa.Client, table string, logger *zap.Logger) *ProfileReader {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "profile-store",
		MaxRequests: 5,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("profile store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &ProfileReader{
		client:  client,
		table:   table,
		breaker: breaker,
		logger:  logger,
	}
}

// FindByID returns a single member's profile.
func (r *ProfileReader) FindByID(_ context.Context, id shared.MemberID) (member.Member, error) {
	raw, err := r.breaker.Execute(func() (any, error) {
		data, _, err := r.client.From(r.table).
			Select("*", "", false).
			Eq("id", id.String()).
			Execute()
		return data, err
	})
	if err != nil {
		return member.Member{}, profileUnavailable("FindByID", err)
	}

	var rows []memberRow
	if err := json.Unmarshal(raw.([]byte), &rows); err != nil {
		return member.Member{}, appErrors.Wrap(err, "FindByID", "failed to decode profile response")
	}
	if len(rows) == 0 {
		return member.Member{}, shared.ErrMemberNotFound
	}
	return rows[0].toDomain()
}

// FindAll returns every member profile.
func (r *ProfileReader) FindAll(_ context.Context) ([]member.Member, error) {
	raw, err := r.breaker.Execute(func() (any, error) {
		data, _, err := r.client.From(r.table).
			Select("*", "", false).
			Execute()
		return data, err
	})
	if err != nil {
		return nil, profileUnavailable("FindAll", err)
	}

	var rows []memberRow
	if err := json.Unmarshal(raw.([]byte), &rows); err != nil {
		return nil, appErrors.Wrap(err, "FindAll", "failed to decode profile response")
	}

	members := make([]member.Member, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			// A profile with a broken id is the profile store's bug;
			// skip it rather than taking suggestions down with it.
			r.logger.Warn("skipping profile with invalid member id", zap.String("id", row.ID))
			continue
		}
		members = append(members, m)
	}
	return members, nil
}

func (row memberRow) toDomain() (member.Member, error) {
	id, err := shared.ParseMemberID(row.ID)
	if err != nil {
		return member.Member{}, err
	}
	return member.Member{
		ID:          id,
		DisplayName: row.DisplayName,
		Location:    row.Location,
		Skills:      row.Skills,
		Interests:   row.Interests,
	}, nil
}

func profileUnavailable(operation string, err error) error {
	return appErrors.Unavailable(appErrors.CodeStoreUnavailable.String(), "profile store request failed").
		WithOperation(operation).
		WithResource("member").
		WithCause(err).
		Build()
}
