package models

import "time"

// LoginAttempt tracks consecutive failed logins for one client identifier.
// Count resets to zero (the record is removed) on a successful login.
type LoginAttempt struct {
	Count         int
	LastAttemptAt time.Time
}
