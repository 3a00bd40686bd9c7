package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Run("generates request ID when not provided", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.NotEmpty(t, GetRequestIDFromRequest(r))
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		expectedID := "test-request-id"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", expectedID)
		w := httptest.NewRecorder()

		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, expectedID, GetRequestIDFromRequest(r))
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, expectedID, w.Header().Get("X-Request-ID"))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Run("converts panic into 500", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	})

	t.Run("passes through normal responses", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestTimeoutMiddleware(t *testing.T) {
	t.Run("completes fast requests", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler := Timeout(time.Second, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("times out slow requests", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		handler := Timeout(20*time.Millisecond, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			close(done)
		}))

		handler.ServeHTTP(w, req)
		<-done

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	t.Run("opens after sustained failures", func(t *testing.T) {
		cfg := CircuitBreakerConfig{
			Name:             "test",
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			FailureThreshold: 0.5,
			MinRequests:      3,
		}
		handler := CircuitBreaker(cfg, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		var last int
		for i := 0; i < 10; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
			last = w.Code
		}

		assert.Equal(t, http.StatusServiceUnavailable, last)
	})

	t.Run("ignores client errors", func(t *testing.T) {
		cfg := DefaultCircuitBreakerConfig("test")
		handler := CircuitBreaker(cfg, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))

		for i := 0; i < 20; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	})
}
