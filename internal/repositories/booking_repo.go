package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tuanvn/tourbook/internal/database"
	"github.com/tuanvn/tourbook/internal/models"
)

type BookingRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db, pool: db.Pool}
}

const bookingSelect = `
	SELECT b.id, b.user_id, b.tour_id, b.booking_date, b.status, b.num_participants,
	       b.total_price, b.notes, t.name, t.destination, t.price, u.full_name, u.email
	FROM bookings b
	JOIN tours t ON t.id = b.tour_id
	JOIN users u ON u.id = b.user_id
`

func scanBookingRow(scanner rowScanner) (*models.Booking, error) {
	var booking models.Booking
	var notes *string

	err := scanner.Scan(
		&booking.ID, &booking.UserID, &booking.TourID, &booking.BookingDate,
		&booking.Status, &booking.NumParticipants, &booking.TotalPrice, &notes,
		&booking.TourName, &booking.TourDestination, &booking.TourPrice,
		&booking.UserName, &booking.UserEmail,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if notes != nil {
		booking.Notes = *notes
	}

	return &booking, nil
}

func scanBookingRows(rows pgx.Rows) ([]*models.Booking, error) {
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		booking, err := scanBookingRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return bookings, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	return scanBookingRow(r.pool.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, bookingSelect+` WHERE b.user_id = $1 ORDER BY b.booking_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	return scanBookingRows(rows)
}

func (r *BookingRepository) List(ctx context.Context) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, bookingSelect+` ORDER BY b.booking_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	return scanBookingRows(rows)
}

// Filter lists bookings matching an optional status and an optional keyword
// against the booking user's name, email or the tour name.
func (r *BookingRepository) Filter(ctx context.Context, status models.BookingStatus, keyword string) ([]*models.Booking, error) {
	query := bookingSelect + `
		WHERE ($1 = '' OR b.status = $1)
		  AND ($2 = '' OR u.full_name ILIKE '%' || $2 || '%' OR u.email ILIKE '%' || $2 || '%' OR t.name ILIKE '%' || $2 || '%')
		ORDER BY b.booking_date DESC
	`

	rows, err := r.pool.Query(ctx, query, string(status), keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to filter bookings: %w", err)
	}
	return scanBookingRows(rows)
}

// Create persists a new booking and returns its generated id.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) (int64, error) {
	booking.BookingDate = time.Now()

	query := `
		INSERT INTO bookings (user_id, tour_id, booking_date, status, num_participants, total_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var notes *string
	if booking.Notes != "" {
		notes = &booking.Notes
	}

	var id int64
	err := r.pool.QueryRow(ctx, query,
		booking.UserID, booking.TourID, booking.BookingDate, booking.Status,
		booking.NumParticipants, booking.TotalPrice, notes,
	).Scan(&id)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	booking.ID = id
	return id, nil
}

// CreateTx persists a new booking inside an existing transaction so slot
// accounting can happen atomically with the insert.
func (r *BookingRepository) CreateTx(ctx context.Context, tx pgx.Tx, booking *models.Booking) (int64, error) {
	booking.BookingDate = time.Now()

	query := `
		INSERT INTO bookings (user_id, tour_id, booking_date, status, num_participants, total_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var notes *string
	if booking.Notes != "" {
		notes = &booking.Notes
	}

	var id int64
	err := tx.QueryRow(ctx, query,
		booking.UserID, booking.TourID, booking.BookingDate, booking.Status,
		booking.NumParticipants, booking.TotalPrice, notes,
	).Scan(&id)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	booking.ID = id
	return id, nil
}

// CreateReservingSlots persists the booking and claims its slots on the tour
// in a single transaction. The guarded UPDATE fails the whole transaction
// with ErrInsufficientCapacity when the tour cannot absorb the party size,
// so concurrent bookings can never oversell.
func (r *BookingRepository) CreateReservingSlots(ctx context.Context, booking *models.Booking) (int64, error) {
	var id int64
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE tours
			SET current_participants = current_participants + $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2 AND current_participants + $1 <= max_participants
		`, booking.NumParticipants, booking.TourID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrInsufficientCapacity
		}

		id, err = r.CreateTx(ctx, tx, booking)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CancelReleasingSlots marks the booking cancelled and returns its slots to
// the tour in a single transaction. The release is clamped at zero so stale
// counters never go negative.
func (r *BookingRepository) CancelReleasingSlots(ctx context.Context, id int64, tourID int64, participants int) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := r.UpdateStatusTx(ctx, tx, id, models.BookingCancelled); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `
			UPDATE tours
			SET current_participants = GREATEST(current_participants - $1, 0), updated_at = CURRENT_TIMESTAMP
			WHERE id = $2
		`, participants, tourID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
}

// UpdateStatusReservingSlots reinstates a booking that had released its
// slots, claiming them back on the tour in the same transaction. The guarded
// UPDATE fails with ErrInsufficientCapacity when the tour has since filled.
func (r *BookingRepository) UpdateStatusReservingSlots(ctx context.Context, id int64, status models.BookingStatus, tourID int64, participants int) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE tours
			SET current_participants = current_participants + $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2 AND current_participants + $1 <= max_participants
		`, participants, tourID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrInsufficientCapacity
		}

		return r.UpdateStatusTx(ctx, tx, id, status)
	})
}

// DeleteReleasingSlots removes the booking and returns its slots to the tour
// in a single transaction, clamped at zero like CancelReleasingSlots.
func (r *BookingRepository) DeleteReleasingSlots(ctx context.Context, id int64, tourID int64, participants int) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		_, err = tx.Exec(ctx, `
			UPDATE tours
			SET current_participants = GREATEST(current_participants - $1, 0), updated_at = CURRENT_TIMESTAMP
			WHERE id = $2
		`, participants, tourID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = $1 WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, id int64, status models.BookingStatus) error {
	result, err := tx.Exec(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM bookings WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *BookingRepository) CountByStatus(ctx context.Context, status models.BookingStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status = $1`, status).Scan(&count)
	return count, err
}

func (r *BookingRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&count)
	return count, err
}

// TotalRevenue sums the price snapshots of confirmed and completed bookings.
func (r *BookingRepository) TotalRevenue(ctx context.Context) (int64, error) {
	var revenue int64
	query := `SELECT COALESCE(SUM(total_price), 0) FROM bookings WHERE status IN ('CONFIRMED', 'COMPLETED')`
	err := r.pool.QueryRow(ctx, query).Scan(&revenue)
	return revenue, err
}

func (r *BookingRepository) Recent(ctx context.Context, limit int) ([]*models.Booking, error) {
	rows, err := r.pool.Query(ctx, bookingSelect+` ORDER BY b.booking_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent bookings: %w", err)
	}
	return scanBookingRows(rows)
}
