package models

import "strconv"

// Requester is the authenticated identity behind a request, extracted from
// the JWT by the auth middleware.
type Requester struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func (r *Requester) IsOrganizer() bool {
	return r != nil && r.Role == RoleHR
}

func (r *Requester) IsCandidate() bool {
	return r != nil && r.Role == RoleCandidate
}

// OrganizerID is the string form used in Interview.ScheduledBy.
func (r *Requester) OrganizerID() string {
	return strconv.FormatUint(uint64(r.UserID), 10)
}
