package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"takeint/internal/models"
	"takeint/internal/voice"

	"go.uber.org/zap"
)

// State of a live interview session.
type State string

const (
	StateIdle       State = "IDLE"
	StateConnecting State = "CONNECTING"
	StateActive     State = "ACTIVE"
	StateHangingUp  State = "HANGING_UP"
	StateFinalizing State = "FINALIZING"
	StateComplete   State = "COMPLETE"
	StateFailed     State = "FAILED"
)

const (
	defaultConnectTimeout  = 30 * time.Second
	defaultFinalizeTimeout = 2 * time.Minute
)

var (
	ErrSessionNotActive = errors.New("session is not active")
	ErrEmptyTranscript  = errors.New("no final transcript was captured")
)

// FinalizeFunc turns a finished session into a persisted feedback report.
type FinalizeFunc func(ctx context.Context, interviewID string, subjectID uint, transcript []models.Turn) (*models.FeedbackReport, error)

// Orchestrator drives one live interview session: it owns the voice channel,
// accumulates the final transcript and hands the result to the finalizer
// exactly once, no matter how the session ends.
type Orchestrator struct {
	Interview models.Interview
	SubjectID uint
	Channel   voice.Channel
	Finalize  FinalizeFunc
	Logger    *zap.Logger

	ConnectTimeout  time.Duration
	FinalizeTimeout time.Duration

	mu         sync.Mutex
	state      State
	speaking   bool
	transcript []models.Turn
	report     *models.FeedbackReport
	failure    error

	detachOnce   sync.Once
	finalizeOnce sync.Once
	done         chan struct{}
}

func NewOrchestrator(iv models.Interview, subjectID uint, ch voice.Channel, finalize FinalizeFunc, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Interview: iv,
		SubjectID: subjectID,
		Channel:   ch,
		Finalize:  finalize,
		Logger:    logger,
		state:     StateIdle,
		done:      make(chan struct{}),
	}
}

// Start connects the voice channel and begins consuming events. It returns
// once the session is ACTIVE or has FAILED to connect.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.setState(StateConnecting)

	connectTimeout := o.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cfg := voice.SessionConfig{
		InterviewID: o.Interview.ID,
		Role:        o.Interview.Role,
		Experience:  o.Interview.Experience,
		Difficulty:  o.Interview.DifficultyLevel,
		Questions:   o.Interview.Questions,
	}
	if err := o.Channel.Connect(connectCtx, cfg); err != nil {
		o.detach()
		o.fail(err)
		return err
	}

	o.setState(StateActive)
	o.Logger.Info("session started", zap.String("interviewId", o.Interview.ID))
	go o.eventLoop()
	return nil
}

// HangUp ends the call from our side. The first of HangUp and the provider's
// call-end event wins; the second is a no-op.
func (o *Orchestrator) HangUp() {
	o.mu.Lock()
	if o.state != StateActive {
		o.mu.Unlock()
		return
	}
	o.state = StateHangingUp
	o.mu.Unlock()

	o.Logger.Info("hanging up", zap.String("interviewId", o.Interview.ID))
	o.detach()
	o.finish()
}

// State returns the current session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Speaking reports whether the assistant is currently speaking.
func (o *Orchestrator) Speaking() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.speaking
}

// Transcript returns a copy of the final turns captured so far.
func (o *Orchestrator) Transcript() []models.Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.Turn, len(o.transcript))
	copy(out, o.transcript)
	return out
}

// Report returns the feedback report once the session is COMPLETE.
func (o *Orchestrator) Report() (*models.FeedbackReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failure != nil {
		return nil, o.failure
	}
	if o.report == nil {
		return nil, ErrSessionNotActive
	}
	return o.report, nil
}

// Done is closed when the session reaches COMPLETE or FAILED.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

func (o *Orchestrator) eventLoop() {
	for ev := range o.Channel.Events() {
		switch ev.Type {
		case voice.EventCallStart:
			o.Logger.Debug("call started", zap.String("interviewId", o.Interview.ID))
		case voice.EventSpeechStart:
			o.setSpeaking(true)
		case voice.EventSpeechEnd:
			o.setSpeaking(false)
		case voice.EventTranscript:
			if !ev.Final() {
				continue
			}
			o.appendTurn(models.Turn{Speaker: ev.Role, Text: ev.Transcript})
		case voice.EventCallEnd:
			o.Logger.Info("provider ended call", zap.String("interviewId", o.Interview.ID))
			o.detach()
			o.finish()
			return
		case voice.EventError:
			o.Logger.Error("voice channel error",
				zap.String("interviewId", o.Interview.ID), zap.Error(ev.Err))
			o.detach()
			o.fail(ev.Err)
			return
		}
	}
	// Channel closed without a call-end frame. Treat as a provider hang-up
	// so a captured transcript still becomes a report.
	if o.State() == StateActive {
		o.detach()
		o.finish()
	}
}

// finish moves the session through FINALIZING. Guarded by finalizeOnce so a
// manual hang-up racing the provider's call-end finalizes exactly once.
func (o *Orchestrator) finish() {
	o.finalizeOnce.Do(func() {
		o.setState(StateFinalizing)
		transcript := o.Transcript()
		if len(transcript) == 0 {
			o.failLocked(ErrEmptyTranscript)
			return
		}

		finalizeTimeout := o.FinalizeTimeout
		if finalizeTimeout <= 0 {
			finalizeTimeout = defaultFinalizeTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
		defer cancel()

		report, err := o.Finalize(ctx, o.Interview.ID, o.SubjectID, transcript)
		if err != nil {
			o.failLocked(err)
			return
		}

		o.mu.Lock()
		o.report = report
		o.state = StateComplete
		o.mu.Unlock()
		close(o.done)
		o.Logger.Info("session complete",
			zap.String("interviewId", o.Interview.ID),
			zap.String("reportId", report.ID))
	})
}

// detach releases the voice channel exactly once.
func (o *Orchestrator) detach() {
	o.detachOnce.Do(func() {
		if err := o.Channel.Disconnect(); err != nil {
			o.Logger.Warn("channel disconnect failed",
				zap.String("interviewId", o.Interview.ID), zap.Error(err))
		}
	})
}

// fail marks the session FAILED through the finalize latch, so a failure
// racing a normal completion settles on a single terminal state.
func (o *Orchestrator) fail(err error) {
	o.finalizeOnce.Do(func() {
		o.failLocked(err)
	})
}

func (o *Orchestrator) failLocked(err error) {
	o.mu.Lock()
	o.failure = err
	o.state = StateFailed
	o.mu.Unlock()
	close(o.done)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) setSpeaking(v bool) {
	o.mu.Lock()
	o.speaking = v
	o.mu.Unlock()
}

func (o *Orchestrator) appendTurn(turn models.Turn) {
	if turn.Text == "" {
		return
	}
	o.mu.Lock()
	o.transcript = append(o.transcript, turn)
	o.mu.Unlock()
}
