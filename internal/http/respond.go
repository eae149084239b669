package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"muvbackoffice/internal/apperr"
	"muvbackoffice/internal/lifecycle"
	"muvbackoffice/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// respondError maps the shared error kinds onto HTTP statuses with a short
// human-readable category.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrDuplicateSubmission):
		writeError(w, http.StatusConflict, "duplicate submission")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry")
	case errors.Is(err, apperr.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperr.ErrInvalidOTP):
		writeError(w, http.StatusUnauthorized, "invalid code")
	case errors.Is(err, apperr.ErrExpired):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, apperr.ErrRevoked):
		writeError(w, http.StatusForbidden, "admin access revoked")
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, apperr.ErrNotAllowed):
		writeError(w, http.StatusForbidden, "not allowed")
	case isValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, services.ErrMissingUserID) ||
		errors.Is(err, services.ErrMissingProduct) ||
		errors.Is(err, services.ErrInvalidQuantity) ||
		errors.Is(err, services.ErrInvalidAmount) ||
		errors.Is(err, services.ErrUnknownOutcome) ||
		errors.Is(err, lifecycle.ErrUnknownStatus) ||
		errors.Is(err, lifecycle.ErrUnknownPaymentStatus) ||
		errors.Is(err, lifecycle.ErrEmptyChange)
}
