package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerConfig holds the breaker tuning knobs.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultCircuitBreakerConfig trips at an 80% failure rate over at least
// five requests, which tolerates isolated storage hiccups but sheds load
// quickly during a real outage.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreaker rejects requests with 503 while the breaker is open. Only
// 5xx responses count as failures; client errors are the caller's problem
// and must not trip the breaker.
func CircuitBreaker(config CircuitBreakerConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := cb.Execute(func() (interface{}, error) {
				recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
				next.ServeHTTP(recorder, r)
				if recorder.status >= http.StatusInternalServerError {
					return nil, fmt.Errorf("upstream returned %d", recorder.status)
				}
				return nil, nil
			})

			if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"error":{"type":"UNAVAILABLE","code":"STORE_UNAVAILABLE","message":"service temporarily unavailable"}}`))
			}
		})
	}
}

// statusRecorder captures the handler's status code for failure accounting.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}
