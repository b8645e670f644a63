package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus is a closed set of booking states.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// ParseBookingStatus normalizes and validates a booking status string.
// Admin status updates arrive as free text and must map onto a known state.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case BookingPending:
		return BookingPending, nil
	case BookingConfirmed:
		return BookingConfirmed, nil
	case BookingCancelled:
		return BookingCancelled, nil
	case BookingCompleted:
		return BookingCompleted, nil
	default:
		return "", fmt.Errorf("unknown booking status %q: %w", s, ErrBadRequest)
	}
}

// UserCancellable reports whether the owning user may still cancel.
// PENDING is the only state a user-initiated cancel is accepted from.
func (s BookingStatus) UserCancellable() bool {
	return s == BookingPending
}

// HoldsSlots reports whether a booking in this status counts against the
// tour's participant counter. Only cancellation returns slots.
func (s BookingStatus) HoldsSlots() bool {
	return s != BookingCancelled
}

// Booking represents a user's reservation on a tour. TotalPrice is the
// price snapshot taken at creation time and is never recomputed.
type Booking struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	TourID          int64         `json:"tour_id"`
	BookingDate     time.Time     `json:"booking_date"`
	Status          BookingStatus `json:"status"`
	NumParticipants int           `json:"num_participants"`
	TotalPrice      int64         `json:"total_price"`
	Notes           string        `json:"notes,omitempty"`

	// Joined tour/user columns for listing views, not persisted on bookings.
	TourName        string `json:"tour_name,omitempty"`
	TourDestination string `json:"tour_destination,omitempty"`
	TourPrice       int64  `json:"tour_price,omitempty"`
	UserName        string `json:"user_name,omitempty"`
	UserEmail       string `json:"user_email,omitempty"`
	Paid            bool   `json:"paid"`
}
