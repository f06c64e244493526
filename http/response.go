package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/stowgate"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error          string `json:"error"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamCode   string `json:"upstream_code,omitempty"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	writeErrorResponse(w, code, ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

func writeErrorResponse(w http.ResponseWriter, code int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
//
// Upstream failures keep the provider's status when it rejected the call, so
// a bad key still reads as 401 to the client. Failures without a usable
// status become 502, or 504 when the call ran out of time.
func HandleError(w http.ResponseWriter, err error) {
	var failure *stowgate.UpstreamFailure
	if errors.As(err, &failure) {
		handleUpstreamFailure(w, failure)
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
		return
	}

	if errors.Is(err, ErrInvalidBody) || errors.Is(err, stowgate.ErrInvalidInput) {
		slog.Warn("request error", "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	slog.Error("request error", "error", err)

	// Default internal error
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func handleUpstreamFailure(w http.ResponseWriter, f *stowgate.UpstreamFailure) {
	attrs := []any{"operation", f.Operation, "kind", f.Kind, "error", f}

	switch f.Kind {
	case stowgate.KindRejected:
		slog.Warn("upstream rejected request", append(attrs, "upstream_status", f.StatusCode, "upstream_code", f.Code)...)

		status := f.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		message := f.Message
		if message == "" {
			message = "Upstream provider rejected the request"
		}
		writeErrorResponse(w, status, ErrorResponse{
			Error:          "upstream_rejected",
			Message:        message,
			UpstreamStatus: f.StatusCode,
			UpstreamCode:   f.Code,
		})

	case stowgate.KindNoResponse:
		slog.Error("upstream did not respond", attrs...)
		if errors.Is(f, context.DeadlineExceeded) || isTimeout(f.Err) {
			WriteError(w, http.StatusGatewayTimeout, "upstream_timeout", "Upstream provider timed out")
			return
		}
		WriteError(w, http.StatusBadGateway, "upstream_unavailable", "Upstream provider did not respond")

	default:
		slog.Error("upstream request failed", attrs...)
		WriteError(w, http.StatusBadGateway, "upstream_request_failed", "Upstream request could not be completed")
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
