package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kinship-backend/internal/config"
	"kinship-backend/internal/infrastructure/observability"
	"kinship-backend/internal/interfaces/websocket"
	"kinship-backend/internal/middleware"
)

// RouterOptions carries the router's optional collaborators.
type RouterOptions struct {
	Hub      *websocket.Hub
	Registry *prometheus.Registry
}

// NewRouter wires the middleware stack and all routes.
func NewRouter(
	handler *Handler,
	cfg *config.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts RouterOptions,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"}, // SECURITY: Consider restricting in production
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Member-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout, logger))
	if cfg.Features.EnableMetrics {
		r.Use(Instrument(metrics))
	}

	r.Get("/health", handler.Health)

	if cfg.Features.EnableMetrics && opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticator(logger))
		r.Use(middleware.CircuitBreaker(middleware.DefaultCircuitBreakerConfig("api"), logger))

		r.Post("/connections", handler.SendRequest)
		r.Get("/connections", handler.ListConnections)
		r.Post("/connections/{connectionID}/respond", handler.Respond)

		r.Get("/members/{memberID}/connection-status", handler.StatusBetween)
		r.Get("/members/{memberID}/neighbors", handler.Neighbors)
		r.Get("/members/{memberID}/trust-score", handler.TrustScore)
		r.Post("/members/{memberID}/activity", handler.RecordActivity)
		r.Get("/members/{memberID}/activity", handler.ListActivity)

		r.Get("/suggestions", handler.Suggestions)
	})

	if cfg.Features.EnableWebSocket && opts.Hub != nil {
		r.Get("/ws", websocket.Handler(opts.Hub, cfg.Events.HubSendBuffer, MemberIDFromRequest, logger))
	}

	return r
}
