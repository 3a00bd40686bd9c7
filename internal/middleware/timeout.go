package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Timeout bounds every request with a deadline. Handlers pass the request
// context down to the repositories, so an expired deadline cancels the
// in-flight storage calls as well.
func Timeout(timeout time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)
			done := make(chan struct{})

			go func() {
				defer func() {
					if err := recover(); err != nil {
						logger.Error("panic in timed handler",
							zap.String("request_id", GetRequestIDFromRequest(r)),
							zap.Any("panic", err))
					}
				}()
				next.ServeHTTP(w, r)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					logger.Warn("request timed out",
						zap.String("request_id", GetRequestIDFromRequest(r)),
						zap.String("path", r.URL.Path),
						zap.Duration("timeout", timeout))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusGatewayTimeout)
					w.Write([]byte(`{"error":{"type":"TIMEOUT","code":"REQUEST_TIMEOUT","message":"request timed out"}}`))
				}
			}
		})
	}
}
