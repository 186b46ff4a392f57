package handlers

import (
	"errors"
	"net/http"

	"takeint/internal/middleware"
	"takeint/internal/models"
	"takeint/internal/repositories"
	"takeint/internal/services"
	"takeint/internal/utils"

	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	Reports *repositories.FeedbackRepository
}

// reportView adds the derived average to the stored report.
type reportView struct {
	models.FeedbackReport
	AverageScore int `json:"averageScore"`
}

func reportViewOf(report models.FeedbackReport) reportView {
	return reportView{FeedbackReport: report, AverageScore: report.AverageScore()}
}

// GetReport handles GET /api/v1/reports/{id}. The ID may be either the
// interview ID or the report ID; clients usually hold the interview ID.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		writeServiceError(w, services.ErrUnauthenticated)
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.JSONError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	report, err := h.Reports.GetReportByInterview(id)
	if errors.Is(err, repositories.ErrReportNotFound) {
		report, err = h.Reports.GetReport(id)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Reports are visible to the candidate who took the interview and to
	// organizers.
	if !requester.IsOrganizer() && report.UserID != requester.UserID {
		utils.JSONError(w, http.StatusNotFound, "report not found")
		return
	}
	utils.JSON(w, http.StatusOK, reportViewOf(*report))
}

// ListReports handles GET /api/v1/reports. Organizers see every report;
// candidates see their own.
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	requester := middleware.RequesterFrom(r.Context())
	if requester == nil {
		writeServiceError(w, services.ErrUnauthenticated)
		return
	}

	reports, err := h.Reports.ListReports()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	views := make([]reportView, 0, len(reports))
	for _, report := range reports {
		if !requester.IsOrganizer() && report.UserID != requester.UserID {
			continue
		}
		views = append(views, reportViewOf(report))
	}
	utils.JSON(w, http.StatusOK, views)
}
