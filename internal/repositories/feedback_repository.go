package repositories

import (
	"errors"
	"time"

	"takeint/internal/models"

	"gorm.io/gorm"
)

var ErrReportNotFound = errors.New("feedback report not found")

type FeedbackRepository struct {
	DB *gorm.DB
}

func (r *FeedbackRepository) GetReport(id string) (*models.FeedbackReport, error) {
	var report models.FeedbackReport
	err := r.DB.First(&report, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	return &report, err
}

func (r *FeedbackRepository) GetReportByInterview(interviewID string) (*models.FeedbackReport, error) {
	var report models.FeedbackReport
	err := r.DB.First(&report, "interview_id = ?", interviewID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	return &report, err
}

func (r *FeedbackRepository) ListReports() ([]models.FeedbackReport, error) {
	var reports []models.FeedbackReport
	err := r.DB.Order("created_at DESC").Find(&reports).Error
	return reports, err
}

// ListReportsSince returns reports created at or after the given time,
// oldest first. Used by the export job.
func (r *FeedbackRepository) ListReportsSince(since time.Time) ([]models.FeedbackReport, error) {
	var reports []models.FeedbackReport
	err := r.DB.
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&reports).Error
	return reports, err
}
