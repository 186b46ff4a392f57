package handlers

import (
	"net/http"
	"time"

	"takeint/internal/middleware"
	"takeint/internal/models"
	"takeint/internal/repositories"
	"takeint/internal/services"
	"takeint/internal/utils"

	"github.com/go-chi/chi/v5"
)

type InterviewHandler struct {
	Interviews *repositories.InterviewRepository
	Visibility *services.Visibility
	Scheduler  *services.Scheduler
}

// interviewView is an interview plus its display status at read time.
type interviewView struct {
	models.Interview
	Status models.DisplayStatus `json:"status"`
}

func viewOf(iv models.Interview, now time.Time) interviewView {
	return interviewView{Interview: iv, Status: models.StatusAt(&iv, now)}
}

// ListInterviews handles GET /api/v1/interviews
func (h *InterviewHandler) ListInterviews(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())
	now := time.Now().UTC()

	interviews, err := h.Visibility.ListVisible(requester, now)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]interviewView, 0, len(interviews))
	for _, iv := range interviews {
		views = append(views, viewOf(iv, now))
	}
	utils.JSON(w, http.StatusOK, views)
}

// GetInterview handles GET /api/v1/interviews/{id}
func (h *InterviewHandler) GetInterview(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.JSONError(w, http.StatusBadRequest, "interview ID is required")
		return
	}
	now := time.Now().UTC()

	iv, err := h.Interviews.GetInterview(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ok, err := h.Visibility.CanView(requester, iv, now)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		// Hidden interviews are indistinguishable from missing ones.
		utils.JSONError(w, http.StatusNotFound, "interview not found")
		return
	}
	utils.JSON(w, http.StatusOK, viewOf(*iv, now))
}

// ListScheduled handles GET /api/v1/interviews/scheduled
func (h *InterviewHandler) ListScheduled(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		writeServiceError(w, services.ErrUnauthenticated)
		return
	}
	if !requester.IsOrganizer() {
		writeServiceError(w, services.ErrForbidden)
		return
	}
	now := time.Now().UTC()

	interviews, err := h.Interviews.ListScheduledBy(requester.OrganizerID())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]interviewView, 0, len(interviews))
	for _, iv := range interviews {
		views = append(views, viewOf(iv, now))
	}
	utils.JSON(w, http.StatusOK, views)
}

// ScheduleInterview handles POST /api/v1/interviews/schedule
func (h *InterviewHandler) ScheduleInterview(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())

	var req services.ScheduleRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	iv, err := h.Scheduler.Schedule(requester, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, viewOf(*iv, time.Now().UTC()))
}

// CreateInterview handles POST /api/v1/interviews
func (h *InterviewHandler) CreateInterview(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())

	var req services.AdHocRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	iv, err := h.Scheduler.CreateAdHoc(requester, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, viewOf(*iv, time.Now().UTC()))
}

// DeleteInterview handles DELETE /api/v1/interviews/{id}. Only the owning
// candidate or the organizer who scheduled it may delete; the report, if any,
// goes with it.
func (h *InterviewHandler) DeleteInterview(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		writeServiceError(w, services.ErrUnauthenticated)
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
	owns := iv.UserID == requester.UserID
	scheduled := requester.IsOrganizer() && iv.ScheduledBy != nil && *iv.ScheduledBy == requester.OrganizerID()
	if !owns && !scheduled {
		writeServiceError(w, services.ErrForbidden)
		return
	}

	if err := h.Interviews.DeleteWithReport(id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
