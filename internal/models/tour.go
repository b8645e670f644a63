package models

import (
	"fmt"
	"strings"
	"time"
)

// TourStatus is a closed set of tour states.
type TourStatus string

const (
	TourActive   TourStatus = "ACTIVE"
	TourInactive TourStatus = "INACTIVE"
)

// ParseTourStatus normalizes and validates a tour status string.
func ParseTourStatus(s string) (TourStatus, error) {
	switch TourStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case TourActive:
		return TourActive, nil
	case TourInactive:
		return TourInactive, nil
	default:
		return "", fmt.Errorf("unknown tour status %q: %w", s, ErrBadRequest)
	}
}

// Tour represents a bookable tour. Price is in whole currency units (VND).
type Tour struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Destination         string     `json:"destination"`
	DepartureDate       *time.Time `json:"departure_date,omitempty"`
	Duration            int        `json:"duration_days"`
	Price               int64      `json:"price"`
	MaxParticipants     int        `json:"max_participants"`
	CurrentParticipants int        `json:"current_participants"`
	ImageURL            string     `json:"image_url,omitempty"`
	Status              TourStatus `json:"status"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// AvailableSlots returns the remaining capacity, never negative.
func (t *Tour) AvailableSlots() int {
	if remaining := t.MaxParticipants - t.CurrentParticipants; remaining > 0 {
		return remaining
	}
	return 0
}

// IsActive reports whether the tour accepts new bookings.
func (t *Tour) IsActive() bool {
	return t.Status == TourActive
}
