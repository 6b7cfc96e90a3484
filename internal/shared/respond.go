package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON envelope returned for every failed request.
type ErrorBody struct {
	Error string `json:"error"`
}

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("encode response", slog.Any("error", err))
	}
}

// RespondError maps an internal error to an HTTP status and a user-safe
// message. Authorization and protection failures are 403, lookups 404,
// credential failures 401, conflicts 409, store failures 502.
func RespondError(w http.ResponseWriter, err error) {
	RespondErrorMessage(w, err, UserSafeMessage(err))
}

// RespondErrorMessage is RespondError with an explicit message, used when the
// caller wants to name the denied capability category.
func RespondErrorMessage(w http.ResponseWriter, err error, message string) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrAccessDenied), errors.Is(err, ErrProtectedEntity), errors.Is(err, ErrSelfDeletion):
		status = http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
	}
	RespondJSON(w, status, ErrorBody{Error: message})
}
