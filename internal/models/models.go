package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles recognised by the platform.
const (
	RoleHR        = "HR"
	RoleCandidate = "CANDIDATE"
)

// User represents a registered user in the system. Registration and
// credential storage live in a separate service; this table only carries
// what the interview flow needs to resolve identities and roles.
type User struct {
	gorm.Model
	Name  string `json:"name"`
	Email string `gorm:"unique;not null" json:"email"`
	Role  string `gorm:"not null;default:CANDIDATE" json:"role"`
}

// Interview is the unit of work: either an ad-hoc mock interview created by
// a candidate, or a slot scheduled by an HR user for a specific candidate.
type Interview struct {
	ID              string     `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"userId"`
	Name            string     `gorm:"not null" json:"name"`
	Type            string     `gorm:"default:Technical" json:"type"`
	Role            string     `json:"role"`
	Experience      string     `json:"experience"`
	TechStack       []string   `gorm:"serializer:json" json:"techStack"`
	DifficultyLevel string     `gorm:"default:Medium" json:"difficultyLevel"`
	NoOfQuestions   int        `gorm:"default:5" json:"noOfQuestions"`
	Questions       []string   `gorm:"serializer:json" json:"questions"`
	IsScheduled     bool       `gorm:"not null;default:false;index" json:"isScheduled"`
	ScheduledBy     *string    `gorm:"index" json:"scheduledBy,omitempty"`
	ScheduledFor    string     `gorm:"index" json:"scheduledFor,omitempty"`
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	IsCompleted     bool       `gorm:"not null;default:false;index" json:"isCompleted"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Turn is one finalized utterance in a session transcript.
type Turn struct {
	Speaker string `json:"role"` // "assistant" or "user"
	Text    string `json:"content"`
}

const (
	SpeakerAssistant = "assistant"
	SpeakerUser      = "user"
)

// WeakTopic is a remediation pointer attached to a feedback report.
type WeakTopic struct {
	Topic         string `json:"topic"`
	ResourceType  string `json:"resourceType"` // "video", "article" or "docs"
	ResourceTitle string `json:"resourceTitle"`
	ResourceURL   string `json:"resourceUrl"`
}

// FeedbackReport is the scored outcome of a completed interview. Exactly one
// report exists per completed interview; it is written once by the finalizer
// and never mutated.
type FeedbackReport struct {
	ID                  string      `gorm:"primaryKey" json:"id"`
	InterviewID         string      `gorm:"uniqueIndex;not null" json:"interviewId"`
	UserID              uint        `gorm:"not null;index" json:"userId"`
	ProblemSolving      int         `json:"problemSolving"`
	SystemDesign        int         `json:"systemDesign"`
	CommunicationSkills int         `json:"communicationSkills"`
	TechnicalAccuracy   int         `json:"technicalAccuracy"`
	BehavioralResponses int         `json:"behavioralResponses"`
	TimeManagement      int         `json:"timeManagement"`
	Summary             string      `gorm:"type:text" json:"summary"`
	Transcript          []Turn      `gorm:"serializer:json" json:"transcript"`
	WeakTopics          []WeakTopic `gorm:"serializer:json" json:"weakTopics"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// AverageScore is the rounded mean of the six sub-scores.
func (r *FeedbackReport) AverageScore() int {
	sum := r.ProblemSolving + r.SystemDesign + r.CommunicationSkills +
		r.TechnicalAccuracy + r.BehavioralResponses + r.TimeManagement
	return (sum + 3) / 6
}
