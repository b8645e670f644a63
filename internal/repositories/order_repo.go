package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tuanvn/tourbook/internal/database"
	"github.com/tuanvn/tourbook/internal/models"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{pool: db.Pool}
}

const orderColumns = `id, user_id, booking_id, tour_id, quantity, total_price, note, payment_method, payment_provider, status, created_at`

func scanOrderRow(scanner rowScanner) (*models.Order, error) {
	var order models.Order
	var note, provider *string

	err := scanner.Scan(
		&order.ID, &order.UserID, &order.BookingID, &order.TourID,
		&order.Quantity, &order.TotalPrice, &note,
		&order.PaymentMethod, &provider, &order.Status, &order.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if note != nil {
		order.Note = *note
	}
	if provider != nil {
		order.PaymentProvider = *provider
	}

	return &order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return scanOrderRow(r.pool.QueryRow(ctx, query, id))
}

// Create persists a payment record and returns it with its generated id.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.CreatedAt = time.Now()

	query := `
		INSERT INTO orders (user_id, booking_id, tour_id, quantity, total_price, note, payment_method, payment_provider, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + orderColumns

	var note, provider *string
	if order.Note != "" {
		note = &order.Note
	}
	if order.PaymentProvider != "" {
		provider = &order.PaymentProvider
	}

	return scanOrderRow(r.pool.QueryRow(ctx, query,
		order.UserID, order.BookingID, order.TourID, order.Quantity,
		order.TotalPrice, note, order.PaymentMethod, provider,
		order.Status, order.CreatedAt,
	))
}

// HasPaidOrder reports whether a PAID order already exists for the booking.
// This is the idempotency guard against double charging.
func (r *OrderRepository) HasPaidOrder(ctx context.Context, bookingID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM orders WHERE booking_id = $1 AND status = 'PAID')`
	err := r.pool.QueryRow(ctx, query, bookingID).Scan(&exists)
	return exists, err
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	result, err := r.pool.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
