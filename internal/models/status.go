package models

import "time"

// DisplayStatus is derived from an interview's timestamps and completion
// flag on every read. It is never persisted, so it cannot drift from the
// fields it is computed from.
type DisplayStatus string

const (
	StatusPending   DisplayStatus = "PENDING"
	StatusExpired   DisplayStatus = "EXPIRED"
	StatusCompleted DisplayStatus = "COMPLETED"
)

// StatusAt computes the display status of an interview at the given instant.
func StatusAt(iv *Interview, now time.Time) DisplayStatus {
	if iv.IsCompleted {
		return StatusCompleted
	}
	if iv.IsScheduled && iv.ExpiresAt != nil && !iv.ExpiresAt.After(now) {
		return StatusExpired
	}
	return StatusPending
}
