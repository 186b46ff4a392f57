package scoring

import (
	"context"

	"takeint/internal/models"
)

// Request is everything the scoring collaborator needs: the ordered
// transcript plus the interview context the questions were generated from.
type Request struct {
	InterviewID     string
	Role            string
	Experience      string
	DifficultyLevel string
	TechStack       []string
	Transcript      []models.Turn
}

// Result is the structured outcome of one scoring call. All sub-scores are
// bounded to 0..100.
type Result struct {
	ProblemSolving      int                `json:"problemSolving"`
	SystemDesign        int                `json:"systemDesign"`
	CommunicationSkills int                `json:"communicationSkills"`
	TechnicalAccuracy   int                `json:"technicalAccuracy"`
	BehavioralResponses int                `json:"behavioralResponses"`
	TimeManagement      int                `json:"timeManagement"`
	Summary             string             `json:"summary"`
	WeakTopics          []models.WeakTopic `json:"weakTopics"`
}

// Provider is the interface scoring backends implement.
type Provider interface {
	ScoreInterview(ctx context.Context, req *Request) (*Result, error)
	GetProviderName() string
}

// ProviderError represents an error from a scoring backend.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Common error codes
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)
