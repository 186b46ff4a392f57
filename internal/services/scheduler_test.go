package services

import (
	"errors"
	"testing"
	"time"

	"takeint/internal/models"
	"takeint/internal/repositories"
	"takeint/internal/testhelpers"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeNotifier struct {
	err   error
	calls chan string
}

func (f *fakeNotifier) SendScheduled(to, candidateName, interviewTitle, organizerName string, scheduledAt, expiresAt time.Time) error {
	if f.calls != nil {
		f.calls <- to
	}
	return f.err
}

func newScheduler(db *gorm.DB, notifier Notifier) *Scheduler {
	return &Scheduler{
		Interviews: &repositories.InterviewRepository{DB: db},
		Users:      &repositories.UserRepository{DB: db},
		Notifier:   notifier,
		Logger:     zap.NewNop(),
	}
}

func seedUser(t *testing.T, db *gorm.DB, name, email, role string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email, Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func organizer(user *models.User) *models.Requester {
	return &models.Requester{UserID: user.ID, Email: user.Email, Name: user.Name, Role: models.RoleHR}
}

func candidate(user *models.User) *models.Requester {
	return &models.Requester{UserID: user.ID, Email: user.Email, Name: user.Name, Role: models.RoleCandidate}
}

func TestScheduler_Schedule(t *testing.T) {
	scheduledAt := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	t.Run("creates scheduled interview with default expiry", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		hr := seedUser(t, db, "Alice HR", "alice@corp.com", models.RoleHR)
		cand := seedUser(t, db, "Bob", "bob@mail.com", models.RoleCandidate)
		notifier := &fakeNotifier{calls: make(chan string, 1)}
		s := newScheduler(db, notifier)

		iv, err := s.Schedule(organizer(hr), &ScheduleRequest{
			CandidateEmail: cand.Email,
			InterviewTitle: "Backend Screen",
			ScheduledAt:    &scheduledAt,
			Role:           "Backend Engineer",
		})
		if err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
		if !iv.IsScheduled || iv.UserID != cand.ID || iv.ScheduledFor != cand.Email {
			t.Fatalf("unexpected interview: %+v", iv)
		}
		if iv.DifficultyLevel != "Medium" || iv.NoOfQuestions != 5 {
			t.Fatalf("defaults not applied: %+v", iv)
		}
		wantExpiry := scheduledAt.Add(DefaultScheduleWindow)
		if iv.ExpiresAt == nil || !iv.ExpiresAt.Equal(wantExpiry) {
			t.Fatalf("expected expiry %v, got %v", wantExpiry, iv.ExpiresAt)
		}

		select {
		case to := <-notifier.calls:
			if to != cand.Email {
				t.Fatalf("notification sent to %q, want %q", to, cand.Email)
			}
		case <-time.After(time.Second):
			t.Fatal("notification never sent")
		}
	})

	t.Run("notification failure does not fail scheduling", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		hr := seedUser(t, db, "Alice HR", "alice@corp.com", models.RoleHR)
		cand := seedUser(t, db, "Bob", "bob@mail.com", models.RoleCandidate)
		notifier := &fakeNotifier{err: errors.New("smtp down"), calls: make(chan string, 1)}
		s := newScheduler(db, notifier)

		iv, err := s.Schedule(organizer(hr), &ScheduleRequest{
			CandidateEmail: cand.Email,
			InterviewTitle: "Backend Screen",
			ScheduledAt:    &scheduledAt,
		})
		if err != nil {
			t.Fatalf("Schedule failed: %v", err)
		}
		<-notifier.calls

		stored, err := s.Interviews.GetInterview(iv.ID)
		if err != nil {
			t.Fatalf("interview not persisted: %v", err)
		}
		if !stored.IsScheduled {
			t.Fatal("interview rolled back after notification failure")
		}
	})

	t.Run("rejects non-organizer", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		cand := seedUser(t, db, "Bob", "bob@mail.com", models.RoleCandidate)
		s := newScheduler(db, nil)

		if _, err := s.Schedule(candidate(cand), &ScheduleRequest{
			CandidateEmail: cand.Email,
			InterviewTitle: "Backend Screen",
			ScheduledAt:    &scheduledAt,
		}); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("rejects unknown candidate", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		hr := seedUser(t, db, "Alice HR", "alice@corp.com", models.RoleHR)
		s := newScheduler(db, nil)

		if _, err := s.Schedule(organizer(hr), &ScheduleRequest{
			CandidateEmail: "ghost@mail.com",
			InterviewTitle: "Backend Screen",
			ScheduledAt:    &scheduledAt,
		}); !errors.Is(err, ErrSubjectNotFound) {
			t.Fatalf("expected ErrSubjectNotFound, got %v", err)
		}
	})

	t.Run("rejects scheduling another organizer", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		hr := seedUser(t, db, "Alice HR", "alice@corp.com", models.RoleHR)
		other := seedUser(t, db, "Carol HR", "carol@corp.com", models.RoleHR)
		s := newScheduler(db, nil)

		if _, err := s.Schedule(organizer(hr), &ScheduleRequest{
			CandidateEmail: other.Email,
			InterviewTitle: "Backend Screen",
			ScheduledAt:    &scheduledAt,
		}); !errors.Is(err, ErrSubjectRoleInvalid) {
			t.Fatalf("expected ErrSubjectRoleInvalid, got %v", err)
		}
	})

	t.Run("rejects expiry at or before scheduled time", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		hr := seedUser(t, db, "Alice HR", "alice@corp.com", models.RoleHR)
		cand := seedUser(t, db, "Bob", "bob@mail.com", models.RoleCandidate)
		s := newScheduler(db, nil)

		expiresAt := scheduledAt
		if _, err := s.Schedule(organizer(hr), &ScheduleRequest{
			CandidateEmail: cand.Email,
			InterviewTitle: "Backend Screen",
			ScheduledAt:    &scheduledAt,
			ExpiresAt:      &expiresAt,
		}); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		db := testhelpers.SetupTestDB(t)
		hr := seedUser(t, db, "Alice HR", "alice@corp.com", models.RoleHR)
		s := newScheduler(db, nil)

		if _, err := s.Schedule(organizer(hr), &ScheduleRequest{
			InterviewTitle: "Backend Screen",
			ScheduledAt:    &scheduledAt,
		}); !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestScheduler_CreateAdHoc(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	cand := seedUser(t, db, "Bob", "bob@mail.com", models.RoleCandidate)
	s := newScheduler(db, nil)

	iv, err := s.CreateAdHoc(candidate(cand), &AdHocRequest{
		Name:      "Go Practice",
		TechStack: []string{"Go"},
	})
	if err != nil {
		t.Fatalf("CreateAdHoc failed: %v", err)
	}
	if iv.IsScheduled {
		t.Fatal("ad-hoc interview must not be scheduled")
	}
	if iv.UserID != cand.ID {
		t.Fatalf("interview owned by %d, want %d", iv.UserID, cand.ID)
	}
	if iv.Type != "Technical" || iv.NoOfQuestions != 5 {
		t.Fatalf("defaults not applied: %+v", iv)
	}

	if _, err := s.CreateAdHoc(candidate(cand), &AdHocRequest{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing name, got %v", err)
	}
}
