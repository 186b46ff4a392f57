package services

import (
	"context"
	"fmt"
	"time"

	"takeint/internal/metrics"
	"takeint/internal/models"
	"takeint/internal/repositories"
	"takeint/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrAlreadyFinalized re-exported for callers that only import services.
var ErrAlreadyFinalized = repositories.ErrAlreadyFinalized

const defaultScoringTimeout = 90 * time.Second

// Finalizer converts a session transcript into a persisted feedback report
// and marks the interview completed, exactly once per interview.
type Finalizer struct {
	Interviews     *repositories.InterviewRepository
	Scorer         scoring.Provider
	ScoringTimeout time.Duration
	Logger         *zap.Logger
}

func (f *Finalizer) scoringTimeout() time.Duration {
	if f.ScoringTimeout > 0 {
		return f.ScoringTimeout
	}
	return defaultScoringTimeout
}

// Finalize scores the transcript and commits report + completion flag in one
// atomic unit. Safe to retry: a duplicate call observes ErrAlreadyFinalized
// and the first report is left untouched.
func (f *Finalizer) Finalize(ctx context.Context, interviewID string, subjectID uint, transcript []models.Turn) (*models.FeedbackReport, error) {
	iv, err := f.Interviews.GetInterview(interviewID)
	if err != nil {
		return nil, err
	}
	// Scheduled slots belong to one candidate; unscheduled pool entries may
	// be attempted by any authenticated candidate.
	if iv.IsScheduled && iv.UserID != subjectID {
		return nil, ErrForbidden
	}
	if iv.IsCompleted {
		return nil, ErrAlreadyFinalized
	}

	scoringCtx, cancel := context.WithTimeout(ctx, f.scoringTimeout())
	defer cancel()
	scoringStart := time.Now()
	result, err := f.Scorer.ScoreInterview(scoringCtx, &scoring.Request{
		InterviewID:     iv.ID,
		Role:            iv.Role,
		Experience:      iv.Experience,
		DifficultyLevel: iv.DifficultyLevel,
		TechStack:       iv.TechStack,
		Transcript:      transcript,
	})
	metrics.ObserveScoring(time.Since(scoringStart))
	if err != nil {
		metrics.FinalizationRecorded("failed")
		f.Logger.Error("scoring failed", zap.String("interviewId", iv.ID), zap.Error(err))
		return nil, err
	}

	report := &models.FeedbackReport{
		ID:                  uuid.New().String(),
		InterviewID:         iv.ID,
		UserID:              subjectID,
		ProblemSolving:      result.ProblemSolving,
		SystemDesign:        result.SystemDesign,
		CommunicationSkills: result.CommunicationSkills,
		TechnicalAccuracy:   result.TechnicalAccuracy,
		BehavioralResponses: result.BehavioralResponses,
		TimeManagement:      result.TimeManagement,
		Summary:             result.Summary,
		Transcript:          transcript,
		WeakTopics:          result.WeakTopics,
	}

	// Discarding a good score after a live session is the costliest failure
	// mode, so a transient commit failure gets one retry before surfacing.
	err = f.Interviews.SaveReportAndComplete(report)
	if err != nil && err != ErrAlreadyFinalized {
		f.Logger.Warn("finalize commit failed, retrying once",
			zap.String("interviewId", iv.ID), zap.Error(err))
		err = f.Interviews.SaveReportAndComplete(report)
	}
	if err != nil {
		if err == ErrAlreadyFinalized {
			metrics.FinalizationRecorded("duplicate")
			return nil, err
		}
		metrics.FinalizationRecorded("failed")
		return nil, fmt.Errorf("failed to persist feedback report: %w", err)
	}

	metrics.FinalizationRecorded("completed")
	f.Logger.Info("interview finalized",
		zap.String("interviewId", iv.ID),
		zap.String("reportId", report.ID),
		zap.Int("turns", len(transcript)))
	return report, nil
}
