package services

import (
	"fmt"
	"time"

	"takeint/internal/models"
	"takeint/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultScheduleWindow is how long a scheduled interview stays open when
// the organizer does not supply an explicit expiry.
const DefaultScheduleWindow = 24 * time.Hour

// Notifier delivers the scheduled-interview notification. Best effort: the
// scheduler never waits on it and never fails because of it.
type Notifier interface {
	SendScheduled(to, candidateName, interviewTitle, organizerName string, scheduledAt, expiresAt time.Time) error
}

// ScheduleRequest carries the organizer's input for a scheduled interview.
type ScheduleRequest struct {
	CandidateEmail  string     `json:"candidateEmail"`
	InterviewTitle  string     `json:"interviewTitle"`
	ScheduledAt     *time.Time `json:"scheduledAt"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	Type            string     `json:"type,omitempty"`
	TechStack       []string   `json:"techStack,omitempty"`
	Role            string     `json:"role,omitempty"`
	Experience      string     `json:"experience,omitempty"`
	DifficultyLevel string     `json:"difficultyLevel,omitempty"`
	NoOfQuestions   int        `json:"noOfQuestions,omitempty"`
}

// AdHocRequest carries a candidate's input for a self-created mock interview.
type AdHocRequest struct {
	Name            string   `json:"name"`
	Type            string   `json:"type,omitempty"`
	TechStack       []string `json:"techStack,omitempty"`
	Role            string   `json:"role,omitempty"`
	Experience      string   `json:"experience,omitempty"`
	DifficultyLevel string   `json:"difficultyLevel,omitempty"`
	NoOfQuestions   int      `json:"noOfQuestions,omitempty"`
	Questions       []string `json:"questions,omitempty"`
}

type Scheduler struct {
	Interviews *repositories.InterviewRepository
	Users      *repositories.UserRepository
	Notifier   Notifier
	Window     time.Duration // defaults to DefaultScheduleWindow when zero
	Logger     *zap.Logger
}

func (s *Scheduler) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultScheduleWindow
}

// Schedule validates the request, creates the scheduled interview and kicks
// off the candidate notification without waiting for it.
func (s *Scheduler) Schedule(requester *models.Requester, req *ScheduleRequest) (*models.Interview, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	if !requester.IsOrganizer() {
		return nil, ErrForbidden
	}
	if req.CandidateEmail == "" || req.InterviewTitle == "" || req.ScheduledAt == nil {
		return nil, fmt.Errorf("%w: candidateEmail, interviewTitle and scheduledAt are required", ErrValidation)
	}

	candidate, err := s.Users.GetUserByEmail(req.CandidateEmail)
	if err == repositories.ErrUserNotFound {
		return nil, ErrSubjectNotFound
	}
	if err != nil {
		return nil, err
	}
	if candidate.Role != models.RoleCandidate {
		return nil, ErrSubjectRoleInvalid
	}

	scheduledAt := req.ScheduledAt.UTC()
	expiresAt := scheduledAt.Add(s.window())
	if req.ExpiresAt != nil {
		expiresAt = req.ExpiresAt.UTC()
	}
	if !expiresAt.After(scheduledAt) {
		return nil, fmt.Errorf("%w: expiresAt must be after scheduledAt", ErrValidation)
	}

	organizerID := requester.OrganizerID()
	iv := &models.Interview{
		ID:              uuid.New().String(),
		UserID:          candidate.ID,
		Name:            req.InterviewTitle,
		Type:            defaultString(req.Type, "Technical"),
		TechStack:       req.TechStack,
		Role:            req.Role,
		Experience:      req.Experience,
		DifficultyLevel: defaultString(req.DifficultyLevel, "Medium"),
		NoOfQuestions:   defaultInt(req.NoOfQuestions, 5),
		Questions:       []string{},
		IsScheduled:     true,
		ScheduledBy:     &organizerID,
		ScheduledFor:    req.CandidateEmail,
		ScheduledAt:     &scheduledAt,
		ExpiresAt:       &expiresAt,
	}
	if err := s.Interviews.CreateInterview(iv); err != nil {
		return nil, err
	}

	// Fire-and-forget: a notification failure must never fail or roll back
	// the scheduling operation.
	if s.Notifier != nil {
		go func() {
			if err := s.Notifier.SendScheduled(candidate.Email, candidate.Name, iv.Name, requester.Name, scheduledAt, expiresAt); err != nil {
				s.Logger.Warn("scheduled-interview notification failed",
					zap.String("interviewId", iv.ID),
					zap.String("candidate", candidate.Email),
					zap.Error(err))
			}
		}()
	}

	s.Logger.Info("interview scheduled",
		zap.String("interviewId", iv.ID),
		zap.String("organizer", organizerID),
		zap.String("candidate", candidate.Email),
		zap.Time("scheduledAt", scheduledAt),
		zap.Time("expiresAt", expiresAt))
	return iv, nil
}

// CreateAdHoc creates an unscheduled mock interview owned by the requesting
// candidate. Ad-hoc interviews join the shared pool until completed.
func (s *Scheduler) CreateAdHoc(requester *models.Requester, req *AdHocRequest) (*models.Interview, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	iv := &models.Interview{
		ID:              uuid.New().String(),
		UserID:          requester.UserID,
		Name:            req.Name,
		Type:            defaultString(req.Type, "Technical"),
		TechStack:       req.TechStack,
		Role:            req.Role,
		Experience:      req.Experience,
		DifficultyLevel: defaultString(req.DifficultyLevel, "Medium"),
		NoOfQuestions:   defaultInt(req.NoOfQuestions, 5),
		Questions:       req.Questions,
	}
	if err := s.Interviews.CreateInterview(iv); err != nil {
		return nil, err
	}
	s.Logger.Info("ad-hoc interview created",
		zap.String("interviewId", iv.ID),
		zap.Uint("userId", requester.UserID))
	return iv, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func defaultInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}
