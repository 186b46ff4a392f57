package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"takeint/internal/models"
	"takeint/internal/scoring"
	"takeint/internal/services"
	"takeint/internal/session"
	"takeint/internal/voice"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type stubChannel struct {
	events chan voice.Event
}

func newStubChannel() *stubChannel {
	return &stubChannel{events: make(chan voice.Event, 16)}
}

func (s *stubChannel) Connect(ctx context.Context, cfg voice.SessionConfig) error { return nil }
func (s *stubChannel) Disconnect() error                                          { return nil }
func (s *stubChannel) Events() <-chan voice.Event                                 { return s.events }

type stubScorer struct{}

func (stubScorer) ScoreInterview(ctx context.Context, req *scoring.Request) (*scoring.Result, error) {
	return &scoring.Result{
		ProblemSolving:      80,
		SystemDesign:        70,
		CommunicationSkills: 90,
		TechnicalAccuracy:   75,
		BehavioralResponses: 85,
		TimeManagement:      65,
		Summary:             "Solid performance.",
	}, nil
}

func (stubScorer) GetProviderName() string { return "stub" }

func newSessionHandler(t *testing.T, api *testAPI, ch voice.Channel) (*SessionHandler, *session.Registry) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	registry := session.NewRegistry(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop())

	h := &SessionHandler{
		Interviews: api.interviews,
		Visibility: api.visibility,
		Finalizer: &services.Finalizer{
			Interviews: api.interviews,
			Scorer:     stubScorer{},
			Logger:     zap.NewNop(),
		},
		Registry:   registry,
		NewChannel: func() voice.Channel { return ch },
		Logger:     zap.NewNop(),
	}
	return h, registry
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestSessionHandler_StartSession(t *testing.T) {
	t.Run("live session finalizes on call end", func(t *testing.T) {
		api := setupAPI(t)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Pool", Role: "Backend Engineer"})
		ch := newStubChannel()
		h, registry := newSessionHandler(t, api, ch)

		rec := httptest.NewRecorder()
		h.StartSession(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/session", requesterFor(cand), iv.ID, nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			SessionID string `json:"sessionId"`
			State     string `json:"state"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if resp.SessionID == "" || resp.State != string(session.StateActive) {
			t.Fatalf("unexpected response: %+v", resp)
		}

		ch.events <- voice.Event{Type: voice.EventTranscript, Role: models.SpeakerUser, Transcript: "Hello.", TranscriptType: "final"}
		ch.events <- voice.Event{Type: voice.EventCallEnd}

		waitUntil(t, func() bool {
			stored, err := api.interviews.GetInterview(iv.ID)
			return err == nil && stored.IsCompleted
		})
		waitUntil(t, func() bool { return registry.Count() == 0 })

		report, err := api.reports.GetReportByInterview(iv.ID)
		if err != nil {
			t.Fatalf("report not persisted: %v", err)
		}
		if report.Summary != "Solid performance." {
			t.Fatalf("unexpected report: %+v", report)
		}
	})

	t.Run("completed interview rejected", func(t *testing.T) {
		api := setupAPI(t)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Done", IsCompleted: true})
		h, _ := newSessionHandler(t, api, newStubChannel())

		rec := httptest.NewRecorder()
		h.StartSession(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/session", requesterFor(cand), iv.ID, nil))
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("second session for same interview rejected", func(t *testing.T) {
		api := setupAPI(t)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Pool"})
		h, _ := newSessionHandler(t, api, newStubChannel())

		rec := httptest.NewRecorder()
		h.StartSession(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/session", requesterFor(cand), iv.ID, nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("first start failed: %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		h.StartSession(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/session", requesterFor(cand), iv.ID, nil))
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("organizer cannot start", func(t *testing.T) {
		api := setupAPI(t)
		hr := api.seedUser(t, "Alice HR", "alice@corp.com", models.RoleHR)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Pool"})
		h, _ := newSessionHandler(t, api, newStubChannel())

		rec := httptest.NewRecorder()
		h.StartSession(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/session", requesterFor(hr), iv.ID, nil))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestSessionHandler_CompleteInterview(t *testing.T) {
	transcriptBody := `{"transcript":[{"role":"assistant","content":"Tell me about Go."},{"role":"user","content":"It has goroutines."}]}`

	t.Run("transcript body finalizes", func(t *testing.T) {
		api := setupAPI(t)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Pool"})
		h, _ := newSessionHandler(t, api, newStubChannel())

		rec := httptest.NewRecorder()
		h.CompleteInterview(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/complete", requesterFor(cand), iv.ID,
			bytes.NewBufferString(transcriptBody)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var report models.FeedbackReport
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if report.InterviewID != iv.ID || len(report.Transcript) != 2 {
			t.Fatalf("unexpected report: %+v", report)
		}

		// A second completion is a conflict.
		rec = httptest.NewRecorder()
		h.CompleteInterview(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/complete", requesterFor(cand), iv.ID,
			bytes.NewBufferString(transcriptBody)))
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("live session is hung up and scored", func(t *testing.T) {
		api := setupAPI(t)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Pool"})
		ch := newStubChannel()
		h, registry := newSessionHandler(t, api, ch)

		rec := httptest.NewRecorder()
		h.StartSession(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/session", requesterFor(cand), iv.ID, nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("start failed: %d", rec.Code)
		}

		ch.events <- voice.Event{Type: voice.EventTranscript, Role: models.SpeakerUser, Transcript: "Hello.", TranscriptType: "final"}
		o, err := registry.GetByInterview(iv.ID)
		if err != nil {
			t.Fatalf("session not registered: %v", err)
		}
		waitUntil(t, func() bool { return len(o.Transcript()) == 1 })

		rec = httptest.NewRecorder()
		h.CompleteInterview(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/complete", requesterFor(cand), iv.ID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var report models.FeedbackReport
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if report.InterviewID != iv.ID {
			t.Fatalf("unexpected report: %+v", report)
		}
	})

	t.Run("another candidate cannot hang up a live session", func(t *testing.T) {
		api := setupAPI(t)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		other := api.seedUser(t, "Dan", "dan@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Pool"})
		ch := newStubChannel()
		h, _ := newSessionHandler(t, api, ch)

		rec := httptest.NewRecorder()
		h.StartSession(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/session", requesterFor(cand), iv.ID, nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("start failed: %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		h.CompleteInterview(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/complete", requesterFor(other), iv.ID, nil))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("expired scheduled slot cannot be finalized", func(t *testing.T) {
		api := setupAPI(t)
		hr := api.seedUser(t, "Alice HR", "alice@corp.com", models.RoleHR)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		hrID := requesterFor(hr).OrganizerID()
		scheduledAt := time.Now().UTC().Add(-48 * time.Hour)
		expiresAt := time.Now().UTC().Add(-24 * time.Hour)
		iv := api.seedInterview(t, &models.Interview{
			UserID:       cand.ID,
			Name:         "Backend Screen",
			IsScheduled:  true,
			ScheduledBy:  &hrID,
			ScheduledFor: cand.Email,
			ScheduledAt:  &scheduledAt,
			ExpiresAt:    &expiresAt,
		})
		h, _ := newSessionHandler(t, api, newStubChannel())

		rec := httptest.NewRecorder()
		h.CompleteInterview(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/complete", requesterFor(cand), iv.ID,
			bytes.NewBufferString(transcriptBody)))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
		stored, err := api.interviews.GetInterview(iv.ID)
		if err != nil {
			t.Fatalf("interview lookup failed: %v", err)
		}
		if stored.IsCompleted {
			t.Fatal("expired slot must not be marked completed")
		}
		if _, err := api.reports.GetReportByInterview(iv.ID); err == nil {
			t.Fatal("no report must exist for an expired slot")
		}
	})

	t.Run("organizer cannot finalize", func(t *testing.T) {
		api := setupAPI(t)
		hr := api.seedUser(t, "Alice HR", "alice@corp.com", models.RoleHR)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Pool"})
		h, _ := newSessionHandler(t, api, newStubChannel())

		rec := httptest.NewRecorder()
		h.CompleteInterview(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/complete", requesterFor(hr), iv.ID,
			bytes.NewBufferString(transcriptBody)))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if _, err := api.reports.GetReportByInterview(iv.ID); err == nil {
			t.Fatal("no report must exist")
		}
	})

	t.Run("missing transcript without live session", func(t *testing.T) {
		api := setupAPI(t)
		cand := api.seedUser(t, "Bob", "bob@mail.com", models.RoleCandidate)
		iv := api.seedInterview(t, &models.Interview{UserID: cand.ID, Name: "Pool"})
		h, _ := newSessionHandler(t, api, newStubChannel())

		rec := httptest.NewRecorder()
		h.CompleteInterview(rec, authedRequest(http.MethodPost, "/api/v1/interviews/"+iv.ID+"/complete", requesterFor(cand), iv.ID,
			bytes.NewBufferString(`{"transcript":[]}`)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
