package handlers

import (
	"context"
	"net/http"
	"time"

	"takeint/internal/metrics"
	"takeint/internal/middleware"
	"takeint/internal/models"
	"takeint/internal/repositories"
	"takeint/internal/services"
	"takeint/internal/session"
	"takeint/internal/utils"
	"takeint/internal/voice"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SessionHandler struct {
	Interviews *repositories.InterviewRepository
	Visibility *services.Visibility
	Finalizer  *services.Finalizer
	Registry   *session.Registry
	NewChannel func() voice.Channel
	Logger     *zap.Logger
}

type sessionResponse struct {
	SessionID string        `json:"sessionId"`
	State     session.State `json:"state"`
}

// StartSession handles POST /api/v1/interviews/{id}/session
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		writeServiceError(w, services.ErrUnauthenticated)
		return
	}
	if requester.IsOrganizer() {
		writeServiceError(w, services.ErrForbidden)
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.JSONError(w, http.StatusBadRequest, "interview ID is required")
		return
	}

	iv, err := h.Interviews.GetInterview(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.Visibility.CanAct(requester, iv, time.Now().UTC()); err != nil {
		writeServiceError(w, err)
		return
	}
	if iv.IsCompleted {
		writeServiceError(w, repositories.ErrAlreadyFinalized)
		return
	}

	o := session.NewOrchestrator(*iv, requester.UserID, h.NewChannel(), h.Finalizer.Finalize, h.Logger)
	sessionID, err := h.Registry.Register(r.Context(), o)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := o.Start(r.Context()); err != nil {
		h.Registry.Release(context.Background(), sessionID)
		h.Logger.Error("failed to start session",
			zap.String("interviewId", iv.ID), zap.Error(err))
		utils.JSONError(w, http.StatusBadGateway, "failed to connect voice session")
		return
	}

	metrics.SessionStarted()
	go func() {
		<-o.Done()
		h.Registry.Release(context.Background(), sessionID)
		metrics.SessionEnded()
	}()

	utils.JSON(w, http.StatusCreated, sessionResponse{SessionID: sessionID, State: o.State()})
}

type completeRequest struct {
	Transcript []models.Turn `json:"transcript"`
}

// CompleteInterview handles POST /api/v1/interviews/{id}/complete. A live
// session is hung up and its captured transcript scored; otherwise the
// transcript must come in the request body.
func (h *SessionHandler) CompleteInterview(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		writeServiceError(w, services.ErrUnauthenticated)
		return
	}
	if requester.IsOrganizer() {
		writeServiceError(w, services.ErrForbidden)
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.JSONError(w, http.StatusBadRequest, "interview ID is required")
		return
	}

	iv, err := h.Interviews.GetInterview(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// Expired slots are hidden from their candidate; finalizing one is refused
	// the same way starting one is.
	if err := h.Visibility.CanAct(requester, iv, time.Now().UTC()); err != nil {
		writeServiceError(w, err)
		return
	}

	if o, err := h.Registry.GetByInterview(id); err == nil {
		if o.SubjectID != requester.UserID {
			writeServiceError(w, services.ErrForbidden)
			return
		}
		o.HangUp()
		<-o.Done()
		report, err := o.Report()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, report)
		return
	}

	var req completeRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if len(req.Transcript) == 0 {
		utils.JSONError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	report, err := h.Finalizer.Finalize(r.Context(), id, requester.UserID, req.Transcript)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
