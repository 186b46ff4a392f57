package services

import (
	"time"

	"takeint/internal/models"
	"takeint/internal/repositories"
)

// Visibility decides which interviews a requester may see and act on.
// Organizers see everything they scheduled; candidates see the shared
// unscheduled pool plus their own unexpired scheduled slots. Completed
// interviews stay visible to the organizer and the candidate who took them.
type Visibility struct {
	Interviews *repositories.InterviewRepository
}

// CanView reports whether the requester may read the interview.
func (v *Visibility) CanView(requester *models.Requester, iv *models.Interview, now time.Time) (bool, error) {
	if requester == nil {
		return false, ErrUnauthenticated
	}
	if requester.IsOrganizer() {
		if iv.ScheduledBy != nil && *iv.ScheduledBy == requester.OrganizerID() {
			return true, nil
		}
		// Completed interviews feed organizer-wide reporting.
		return iv.IsCompleted, nil
	}

	if !iv.IsScheduled {
		if iv.IsCompleted {
			return iv.UserID == requester.UserID, nil
		}
		return true, nil
	}
	if iv.ScheduledFor != requester.Email {
		return false, nil
	}
	if iv.IsCompleted {
		return true, nil
	}
	// Expired scheduled slots are hidden from the candidate even though the
	// record persists.
	return models.StatusAt(iv, now) != models.StatusExpired, nil
}

// CanAct is CanView for mutating operations: instead of silently filtering,
// it surfaces ErrForbidden so the caller sees why nothing happened.
func (v *Visibility) CanAct(requester *models.Requester, iv *models.Interview, now time.Time) error {
	ok, err := v.CanView(requester, iv, now)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// ListVisible returns the interviews the requester may see at the given
// instant.
func (v *Visibility) ListVisible(requester *models.Requester, now time.Time) ([]models.Interview, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	if requester.IsOrganizer() {
		return v.Interviews.ListScheduledBy(requester.OrganizerID())
	}
	interviews, err := v.Interviews.ListForCandidate(requester.Email, now)
	if err != nil {
		return nil, err
	}
	// Completed pool entries belong to whichever candidate took them.
	visible := interviews[:0]
	for _, iv := range interviews {
		if iv.IsCompleted && iv.UserID != requester.UserID {
			continue
		}
		visible = append(visible, iv)
	}
	return visible, nil
}
