package models

import "time"

// Favorite marks a tour saved by a user.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TourID    int64     `json:"tour_id"`
	CreatedAt time.Time `json:"created_at"`

	// Joined tour columns for listing views.
	TourName        string     `json:"tour_name,omitempty"`
	TourDestination string     `json:"tour_destination,omitempty"`
	TourPrice       int64      `json:"tour_price,omitempty"`
	TourImageURL    string     `json:"tour_image_url,omitempty"`
	TourStatus      TourStatus `json:"tour_status,omitempty"`
}
