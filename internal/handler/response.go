package handler

// Response helpers shared by all handlers, so every endpoint speaks the same
// JSON dialect: payloads via writeJSON, failures via writeError as
// {"error": "<human-readable message>"}.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/tenderboard/internal/apperror"
)

// ErrorResponse is the error format returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body — once Encode starts
// writing, header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers already sent — all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// The service layer deals in apperror sentinels; this is the single place
// they become status codes:
//
//	ErrValidation   → 400  (missing/malformed input)
//	ErrConflict     → 400  (duplicate email — the dashboard shows the message inline)
//	ErrUnauthorized → 401
//	ErrNotFound     → 404
//	anything else   → 500 with a generic message
//
// Unknown errors never reach the client verbatim — raw messages can carry
// SQL fragments or file paths.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError

		switch {
		case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		}

		writeJSON(w, status, ErrorResponse{Error: appErr.Message})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "an internal error occurred"})
}
