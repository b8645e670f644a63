package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Booking lifecycle errors
	ErrTourNotActive        = errors.New("tour is not active")
	ErrInsufficientCapacity = errors.New("not enough available slots")
	ErrInvalidTransition    = errors.New("invalid booking status transition")
	ErrInvalidState         = errors.New("booking is not in a payable state")
	ErrAlreadyPaid          = errors.New("booking has already been paid")
)

// LockedError signals that login attempts for a client are temporarily
// rejected. RetryAfter is the remaining lockout window, truncated to whole
// seconds, so handlers can emit a Retry-After header.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %ds", int(e.RetryAfter.Seconds()))
}
