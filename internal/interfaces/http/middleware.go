package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "kinship-backend/internal/errors"
	"kinship-backend/internal/infrastructure/observability"
	"kinship-backend/internal/middleware"
)

type contextKey string

const memberIDKey contextKey = "memberID"

// memberIDHeader carries the authenticated member id. The edge (API Gateway
// authorizer in Lambda, the auth proxy in local deployments) validates the
// Supabase JWT and injects this header; the service itself never sees the
// token.
const memberIDHeader = "X-Member-ID"

// Authenticator rejects requests without an authenticated member identity.
func Authenticator(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			memberID := r.Header.Get(memberIDHeader)
			if memberID == "" {
				writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorPayload{
					Type:      string(appErrors.ErrorTypeForbidden),
					Code:      "UNAUTHENTICATED",
					Message:   "missing member identity",
					RequestID: requestIDFrom(r.Context()),
				}})
				return
			}
			ctx := context.WithValue(r.Context(), memberIDKey, memberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MemberIDFromRequest returns the authenticated member id, or empty string.
// The WebSocket upgrade handler shares this with the REST handlers.
func MemberIDFromRequest(r *http.Request) string {
	if id, ok := r.Context().Value(memberIDKey).(string); ok {
		return id
	}
	return r.Header.Get(memberIDHeader)
}

func requestIDFrom(ctx context.Context) string {
	return middleware.GetRequestID(ctx)
}

// Instrument records request latency by route pattern and status class.
func Instrument(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			metrics.HTTPRequestDuration.
				WithLabelValues(routePattern(r), statusClass(recorder.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// routePattern returns the chi route pattern so metrics stay low-cardinality
// even though paths embed member and connection ids.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
