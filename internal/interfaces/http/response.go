package rest

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	appErrors "kinship-backend/internal/errors"
)

// errorPayload is the wire form of a failed request. Code carries the
// machine-readable error code; clients branch on it rather than the message.
type errorPayload struct {
	Type      string `json:"type"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the unified error taxonomy onto HTTP semantics. Internal
// details never leak: only type, code and the top-level message go out.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	payload := errorPayload{
		Type:      string(appErrors.ErrorTypeInternal),
		Code:      string(appErrors.CodeInternalError),
		Message:   "an internal error occurred",
		RequestID: requestIDFrom(r.Context()),
	}

	if ue, ok := appErrors.AsUnifiedError(err); ok {
		payload.Type = string(ue.Type)
		payload.Code = ue.Code
		payload.Message = ue.Message

		switch ue.Type {
		case appErrors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case appErrors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case appErrors.ErrorTypeConflict:
			status = http.StatusConflict
		case appErrors.ErrorTypeForbidden:
			status = http.StatusForbidden
		case appErrors.ErrorTypeTimeout:
			status = http.StatusGatewayTimeout
		case appErrors.ErrorTypeUnavailable:
			status = http.StatusServiceUnavailable
			if ue.RetryAfter > 0 {
				seconds := int(math.Ceil(ue.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
			}
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", payload.RequestID),
			zap.Error(err))
	}

	writeJSON(w, status, errorEnvelope{Error: payload})
}

// writeValidationError reports a malformed request body or parameter.
func writeValidationError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, detail string) {
	writeError(w, r, logger, appErrors.Validation(string(appErrors.CodeValidationFailed), detail).Build())
}
