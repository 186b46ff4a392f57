package handlers

import (
	"errors"
	"net/http"

	"takeint/internal/repositories"
	"takeint/internal/scoring"
	"takeint/internal/services"
	"takeint/internal/session"
	"takeint/internal/utils"
)

// writeServiceError maps service and repository sentinels to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		utils.JSONError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, services.ErrForbidden):
		utils.JSONError(w, http.StatusForbidden, "not allowed")
	case errors.Is(err, services.ErrSubjectNotFound):
		utils.JSONError(w, http.StatusNotFound, "candidate not found")
	case errors.Is(err, services.ErrSubjectRoleInvalid), errors.Is(err, services.ErrValidation):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repositories.ErrInterviewNotFound):
		utils.JSONError(w, http.StatusNotFound, "interview not found")
	case errors.Is(err, repositories.ErrReportNotFound):
		utils.JSONError(w, http.StatusNotFound, "report not found")
	case errors.Is(err, repositories.ErrAlreadyFinalized):
		utils.JSONError(w, http.StatusConflict, "interview is already completed")
	case errors.Is(err, session.ErrSessionExists):
		utils.JSONError(w, http.StatusConflict, "interview already has a live session")
	case errors.Is(err, session.ErrSessionNotFound):
		utils.JSONError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrEmptyTranscript):
		utils.JSONError(w, http.StatusBadRequest, "no transcript was captured")
	default:
		var provErr *scoring.ProviderError
		if errors.As(err, &provErr) {
			utils.JSONError(w, http.StatusBadGateway, "scoring provider unavailable")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
