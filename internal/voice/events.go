package voice

import (
	"context"
	"fmt"
)

// Event kinds emitted by a live voice channel.
const (
	EventCallStart   = "call-start"
	EventCallEnd     = "call-end"
	EventSpeechStart = "speech-start"
	EventSpeechEnd   = "speech-end"
	EventTranscript  = "message"
	EventError       = "error"
)

// Event is a single notification from the voice provider. Transcript events
// carry the recognised text; error events carry Err.
type Event struct {
	Type           string `json:"type"`
	Role           string `json:"role,omitempty"`           // "assistant" or "user"
	Transcript     string `json:"transcript,omitempty"`     // transcript events only
	TranscriptType string `json:"transcriptType,omitempty"` // "partial" or "final"
	Err            error  `json:"-"`
}

// Final reports whether the event is a finalised transcript fragment.
// Partial fragments are superseded by later events and must not be recorded.
func (e Event) Final() bool {
	return e.Type == EventTranscript && e.TranscriptType == "final"
}

// SessionConfig describes the interview the assistant should conduct.
type SessionConfig struct {
	InterviewID   string   `json:"interviewId"`
	CandidateName string   `json:"candidateName"`
	Role          string   `json:"role"`
	Experience    string   `json:"experience"`
	Difficulty    string   `json:"difficulty"`
	Questions     []string `json:"questions"`
}

// Channel is a live bidirectional connection to the voice provider. Connect
// starts the assistant; Events delivers provider notifications until the
// channel closes; Disconnect tears the call down. Disconnect is idempotent.
type Channel interface {
	Connect(ctx context.Context, cfg SessionConfig) error
	Disconnect() error
	Events() <-chan Event
}

// ChannelError wraps a provider-side failure.
type ChannelError struct {
	Op  string
	Err error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("voice channel %s: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }
