// Package rest exposes the connection graph over HTTP: the ledger commands,
// the relationship reads, suggestions, trust scores and activity ingestion.
package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"kinship-backend/internal/domain/activity"
	"kinship-backend/internal/domain/connection"
	appErrors "kinship-backend/internal/errors"
	"kinship-backend/internal/infrastructure/observability"
	"kinship-backend/internal/service/activities"
	"kinship-backend/internal/service/connections"
	"kinship-backend/internal/service/suggest"
	"kinship-backend/internal/service/trust"
)

// Handler bundles the HTTP endpoints and their dependencies.
type Handler struct {
	connections connections.Service
	suggestions *suggest.Generator
	trust       *trust.Aggregator
	activities  activities.Service

	validate    *validator.Validate
	metrics     *observability.Metrics
	logger      *zap.Logger
	environment string
}

// NewHandler creates the endpoint handler.
func NewHandler(
	connectionSvc connections.Service,
	suggestionGen *suggest.Generator,
	trustAgg *trust.Aggregator,
	activitySvc activities.Service,
	metrics *observability.Metrics,
	logger *zap.Logger,
	environment string,
) *Handler {
	return &Handler{
		connections: connectionSvc,
		suggestions: suggestionGen,
		trust:       trustAgg,
		activities:  activitySvc,
		validate:    validator.New(),
		metrics:     metrics,
		logger:      logger,
		environment: environment,
	}
}

// SendRequest handles POST /api/connections.
func (h *Handler) SendRequest(w http.ResponseWriter, r *http.Request) {
	var body SendRequestBody
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	requesterID := MemberIDFromRequest(r)
	record, err := h.connections.SendRequest(r.Context(), requesterID, body.AddresseeID)
	h.countLedgerOp("send_request", err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toConnectionResponse(record))
}

// Respond handles POST /api/connections/{connectionID}/respond.
func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	var body RespondBody
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	connectionID := chi.URLParam(r, "connectionID")
	responderID := MemberIDFromRequest(r)
	record, err := h.connections.Respond(r.Context(), connectionID, responderID, connection.Decision(body.Decision))
	h.countLedgerOp("respond", err)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toConnectionResponse(record))
}

// ListConnections handles GET /api/connections.
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	memberID := MemberIDFromRequest(r)

	var status *connection.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := connection.Status(raw)
		if !s.IsValid() {
			writeValidationError(w, r, h.logger, "status must be pending, accepted or declined")
			return
		}
		status = &s
	}

	page := connection.Page{
		Limit:  queryInt(r, "limit", connection.DefaultPage.Limit),
		Offset: queryInt(r, "offset", 0),
	}

	records, err := h.connections.ListConnections(r.Context(), memberID, status, page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ConnectionListResponse{
		Connections: toConnectionResponses(records),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
}

// StatusBetween handles GET /api/members/{memberID}/connection-status.
// The reported status is relative to the authenticated viewer.
func (h *Handler) StatusBetween(w http.ResponseWriter, r *http.Request) {
	viewerID := MemberIDFromRequest(r)
	otherID := chi.URLParam(r, "memberID")

	status, err := h.connections.StatusBetween(r.Context(), viewerID, otherID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusBetweenResponse{
		MemberID: viewerID,
		OtherID:  otherID,
		Status:   string(status),
	})
}

// Neighbors handles GET /api/members/{memberID}/neighbors.
func (h *Handler) Neighbors(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")

	neighbors, err := h.connections.Neighbors(r.Context(), memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ids := make([]string, 0, len(neighbors))
	for _, n := range neighbors {
		ids = append(ids, n.String())
	}
	writeJSON(w, http.StatusOK, NeighborsResponse{MemberID: memberID, Neighbors: ids})
}

// Suggestions handles GET /api/suggestions for the authenticated member.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	memberID := MemberIDFromRequest(r)
	limit := queryInt(r, "limit", 0)

	results, err := h.suggestions.Suggest(r.Context(), memberID, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.metrics.SuggestionsServed.Observe(float64(len(results)))
	writeJSON(w, http.StatusOK, SuggestionsResponse{MemberID: memberID, Suggestions: results})
}

// TrustScore handles GET /api/members/{memberID}/trust-score. Scores are
// public profile data, so any authenticated member may read any score.
func (h *Handler) TrustScore(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")

	score, err := h.trust.Compute(r.Context(), memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.metrics.TrustScoreComputations.Inc()
	writeJSON(w, http.StatusOK, TrustScoreResponse{MemberID: memberID, Score: score})
}

// RecordActivity handles POST /api/members/{memberID}/activity. Producers
// (feed, groups, campaigns, verification) push verified events here.
func (h *Handler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	var body RecordActivityBody
	if !h.decodeAndValidate(w, r, &body) {
		return
	}

	memberID := chi.URLParam(r, "memberID")
	event, err := h.activities.Record(r.Context(), body.EventID, memberID,
		activity.Kind(body.Kind), body.Weight, body.OccurredAt, body.Verified)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toActivityResponse(event))
}

// ListActivity handles GET /api/members/{memberID}/activity.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")

	events, err := h.activities.ListByMember(r.Context(), memberID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ActivityListResponse{
		MemberID:   memberID,
		Activities: toActivityResponses(events),
	})
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		Environment: h.environment,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

// decodeAndValidate parses the JSON body and runs struct validation,
// reporting a 400 itself when either fails.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, body interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		writeValidationError(w, r, h.logger, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(body); err != nil {
		writeValidationError(w, r, h.logger, validationDetail(err))
		return false
	}
	return true
}

func validationDetail(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		first := verrs[0]
		return "field " + first.Field() + " failed validation rule " + first.Tag()
	}
	return "request body failed validation"
}

func (h *Handler) countLedgerOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = appErrors.Code(err)
		if outcome == "" {
			outcome = "error"
		}
	}
	h.metrics.LedgerOperations.WithLabelValues(operation, outcome).Inc()
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
