package repositories

import (
	"errors"
	"time"

	"takeint/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrAlreadyFinalized  = errors.New("interview already finalized")
)

type InterviewRepository struct {
	DB *gorm.DB
}

func (r *InterviewRepository) CreateInterview(iv *models.Interview) error {
	return r.DB.Create(iv).Error
}

func (r *InterviewRepository) GetInterview(id string) (*models.Interview, error) {
	var iv models.Interview
	err := r.DB.First(&iv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInterviewNotFound
	}
	return &iv, err
}

// ListForCandidate returns the shared unscheduled pool plus the candidate's
// own scheduled interviews whose window has not yet expired. Expired
// scheduled slots stay in the table but are hidden from the candidate.
func (r *InterviewRepository) ListForCandidate(email string, now time.Time) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.DB.
		Where("is_scheduled = ?", false).
		Or(r.DB.Where("is_scheduled = ?", true).
			Where("scheduled_for = ?", email).
			Where("expires_at > ?", now)).
		Order("created_at DESC").
		Find(&interviews).Error
	return interviews, err
}

// ListScheduledBy returns every interview scheduled by the given organizer,
// regardless of window state.
func (r *InterviewRepository) ListScheduledBy(organizerID string) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.DB.
		Where("is_scheduled = ? AND scheduled_by = ?", true, organizerID).
		Order("scheduled_at DESC").
		Find(&interviews).Error
	return interviews, err
}

func (r *InterviewRepository) ListCompleted() ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.DB.
		Where("is_completed = ?", true).
		Order("created_at DESC").
		Find(&interviews).Error
	return interviews, err
}

// DeleteWithReport removes an interview and its feedback report in one
// transaction. Administrative side path, not part of the session flow.
func (r *InterviewRepository) DeleteWithReport(id string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.FeedbackReport{}, "interview_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Interview{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInterviewNotFound
		}
		return nil
	})
}

// SaveReportAndComplete persists a feedback report and flips the interview to
// completed in a single transaction. The guarded update doubles as the
// exactly-once check: a second call for the same interview matches zero rows
// and the whole transaction rolls back with ErrAlreadyFinalized.
func (r *InterviewRepository) SaveReportAndComplete(report *models.FeedbackReport) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Interview{}).
			Where("id = ? AND is_completed = ?", report.InterviewID, false).
			Update("is_completed", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyFinalized
		}
		return tx.Create(report).Error
	})
}
