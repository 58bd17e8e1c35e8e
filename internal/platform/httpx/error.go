package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/minashop/api/internal/platform/requestctx"
)

// Error is the structured failure envelope returned by every handler.
type Error struct {
	Code      string         `json:"error"`
	Message   string         `json:"message"`
	Status    int            `json:"status"`
	RequestID string         `json:"request_id,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewError builds an Error with a sanitized code and message.
func NewError(code, message string, status int) *Error {
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	return &Error{
		Code:    sanitize(code, "internal_server_error"),
		Message: sanitize(message, http.StatusText(status)),
		Status:  status,
	}
}

// WithDetails attaches extra key/value context to the error payload.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e == nil || len(details) == 0 {
		return e
	}
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}

// WriteError serialises the error envelope, stamping the request and trace
// identifiers from context so clients can quote them in support requests.
func WriteError(ctx context.Context, w http.ResponseWriter, apiErr *Error) {
	if apiErr == nil {
		apiErr = NewError("internal_server_error", "internal server error", http.StatusInternalServerError)
	}

	payload := *apiErr
	if payload.RequestID == "" {
		payload.RequestID = middleware.GetReqID(ctx)
	}
	if payload.TraceID == "" {
		payload.TraceID = requestctx.TraceID(ctx)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(payload.Status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		requestctx.Logger(ctx).Warn("failed to encode error payload")
	}
}

// WriteJSON serialises a success payload with the given status code.
func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		requestctx.Logger(ctx).Warn("failed to encode response payload")
	}
}

func sanitize(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
