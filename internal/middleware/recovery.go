package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// Recovery converts panics into 500 responses instead of dropped connections.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						zap.String("request_id", GetRequestIDFromRequest(r)),
						zap.String("path", r.URL.Path),
						zap.Any("panic", err),
						zap.ByteString("stack", debug.Stack()))

					// If the handler already started writing, the connection
					// is unsalvageable and the server will close it.
					if w.Header().Get("Content-Type") == "" {
						w.Header().Set("Content-Type", "application/json")
						w.WriteHeader(http.StatusInternalServerError)
						w.Write([]byte(`{"error":{"type":"INTERNAL","code":"INTERNAL_ERROR","message":"an internal error occurred"}}`))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
