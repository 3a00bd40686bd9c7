package rest

import (
	"time"

	"kinship-backend/internal/domain/activity"
	"kinship-backend/internal/domain/connection"
	"kinship-backend/internal/service/suggest"
	"kinship-backend/internal/service/trust"
)

// SendRequestBody is the payload for POST /api/connections.
type SendRequestBody struct {
	AddresseeID string `json:"addresseeId" validate:"required,max=64"`
}

// RespondBody is the payload for POST /api/connections/{id}/respond.
type RespondBody struct {
	Decision string `json:"decision" validate:"required,oneof=accepted declined"`
}

// RecordActivityBody is the payload for POST /api/members/{id}/activity.
// Producers retrying a delivery resend the same eventId.
type RecordActivityBody struct {
	EventID    string    `json:"eventId" validate:"omitempty,uuid4"`
	Kind       string    `json:"kind" validate:"required"`
	Weight     float64   `json:"weight" validate:"gte=0,lte=100"`
	OccurredAt time.Time `json:"occurredAt" validate:"required"`
	Verified   bool      `json:"verified"`
}

// ConnectionResponse is the wire form of a ledger record.
type ConnectionResponse struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requesterId"`
	AddresseeID string     `json:"addresseeId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

// StatusBetweenResponse reports the viewer-relative relation to another member.
type StatusBetweenResponse struct {
	MemberID string `json:"memberId"`
	OtherID  string `json:"otherId"`
	Status   string `json:"status"`
}

// ConnectionListResponse pages through a member's ledger records.
type ConnectionListResponse struct {
	Connections []ConnectionResponse `json:"connections"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// NeighborsResponse lists the member's accepted-edge neighbors.
type NeighborsResponse struct {
	MemberID  string   `json:"memberId"`
	Neighbors []string `json:"neighbors"`
}

// SuggestionsResponse carries the ranked discovery candidates.
type SuggestionsResponse struct {
	MemberID    string               `json:"memberId"`
	Suggestions []suggest.Suggestion `json:"suggestions"`
}

// TrustScoreResponse carries the score and its term breakdown.
type TrustScoreResponse struct {
	MemberID string      `json:"memberId"`
	Score    trust.Score `json:"score"`
}

// ActivityResponse is the wire form of a recorded activity event.
type ActivityResponse struct {
	ID         string    `json:"id"`
	MemberID   string    `json:"memberId"`
	Kind       string    `json:"kind"`
	Weight     float64   `json:"weight"`
	OccurredAt time.Time `json:"occurredAt"`
	Verified   bool      `json:"verified"`
}

// ActivityListResponse lists a member's verified activity, newest first.
type ActivityListResponse struct {
	MemberID   string             `json:"memberId"`
	Activities []ActivityResponse `json:"activities"`
}

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Timestamp   string `json:"timestamp"`
}

func toConnectionResponse(record *connection.Record) ConnectionResponse {
	return ConnectionResponse{
		ID:          record.ID().String(),
		RequesterID: record.RequesterID().String(),
		AddresseeID: record.AddresseeID().String(),
		Status:      string(record.Status()),
		CreatedAt:   record.CreatedAt(),
		RespondedAt: record.RespondedAt(),
	}
}

func toConnectionResponses(records []*connection.Record) []ConnectionResponse {
	out := make([]ConnectionResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toConnectionResponse(record))
	}
	return out
}

func toActivityResponse(event *activity.Event) ActivityResponse {
	return ActivityResponse{
		ID:         event.ID,
		MemberID:   event.MemberID.String(),
		Kind:       string(event.Kind),
		Weight:     event.Weight,
		OccurredAt: event.OccurredAt,
		Verified:   event.Verified,
	}
}

func toActivityResponses(events []*activity.Event) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toActivityResponse(event))
	}
	return out
}
