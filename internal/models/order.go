package models

import "time"

// OrderStatus is a closed set of payment record states.
type OrderStatus string

const (
	OrderPaid     OrderStatus = "PAID"
	OrderRefunded OrderStatus = "REFUNDED"
)

// Order is the payment record for a booking. At most one PAID order may
// exist per booking in normal operation.
type Order struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	BookingID       int64       `json:"booking_id"`
	TourID          int64       `json:"tour_id"`
	Quantity        int         `json:"quantity"`
	TotalPrice      int64       `json:"total_price"`
	Note            string      `json:"note,omitempty"`
	PaymentMethod   string      `json:"payment_method"`
	PaymentProvider string      `json:"payment_provider,omitempty"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}
