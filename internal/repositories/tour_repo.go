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

type TourRepository struct {
	pool *pgxpool.Pool
}

func NewTourRepository(db *database.DB) *TourRepository {
	return &TourRepository{pool: db.Pool}
}

const tourColumns = `id, name, description, destination, departure_date, duration_days, price, max_participants, current_participants, image_url, status, created_at, updated_at`

func scanTourRow(scanner rowScanner) (*models.Tour, error) {
	var tour models.Tour
	var description, imageURL *string

	err := scanner.Scan(
		&tour.ID, &tour.Name, &description, &tour.Destination,
		&tour.DepartureDate, &tour.Duration, &tour.Price,
		&tour.MaxParticipants, &tour.CurrentParticipants,
		&imageURL, &tour.Status, &tour.CreatedAt, &tour.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if description != nil {
		tour.Description = *description
	}
	if imageURL != nil {
		tour.ImageURL = *imageURL
	}

	return &tour, nil
}

func scanTourRows(rows pgx.Rows) ([]*models.Tour, error) {
	defer rows.Close()

	tours := make([]*models.Tour, 0)
	for rows.Next() {
		tour, err := scanTourRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, tour)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return tours, nil
}

func (r *TourRepository) GetByID(ctx context.Context, id int64) (*models.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`
	return scanTourRow(r.pool.QueryRow(ctx, query, id))
}

func (r *TourRepository) List(ctx context.Context) ([]*models.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tours: %w", err)
	}
	return scanTourRows(rows)
}

func (r *TourRepository) ListByStatus(ctx context.Context, status models.TourStatus) ([]*models.Tour, error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE status = $1 ORDER BY departure_date ASC NULLS LAST`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query tours by status: %w", err)
	}
	return scanTourRows(rows)
}

// Filter lists active tours matching the optional keyword, destination and
// price bounds. Zero bounds are ignored.
func (r *TourRepository) Filter(ctx context.Context, keyword, destination string, minPrice, maxPrice int64) ([]*models.Tour, error) {
	query := `
		SELECT ` + tourColumns + ` FROM tours
		WHERE status = 'ACTIVE'
		  AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR destination ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR destination = $2)
		  AND ($3 = 0 OR price >= $3)
		  AND ($4 = 0 OR price <= $4)
		ORDER BY departure_date ASC NULLS LAST
	`

	rows, err := r.pool.Query(ctx, query, keyword, destination, minPrice, maxPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to filter tours: %w", err)
	}
	return scanTourRows(rows)
}

// Related lists other active tours to the same destination.
func (r *TourRepository) Related(ctx context.Context, destination string, excludeTourID int64, limit int) ([]*models.Tour, error) {
	query := `
		SELECT ` + tourColumns + ` FROM tours
		WHERE status = 'ACTIVE' AND destination = $1 AND id <> $2
		ORDER BY departure_date ASC NULLS LAST
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, destination, excludeTourID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query related tours: %w", err)
	}
	return scanTourRows(rows)
}

func (r *TourRepository) Destinations(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT destination FROM tours WHERE status = 'ACTIVE' ORDER BY destination`)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer rows.Close()

	destinations := make([]string, 0)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		destinations = append(destinations, d)
	}

	return destinations, rows.Err()
}

func (r *TourRepository) Create(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	now := time.Now()
	tour.CreatedAt = now
	tour.UpdatedAt = now

	if tour.Status == "" {
		tour.Status = models.TourActive
	}

	query := `
		INSERT INTO tours (name, description, destination, departure_date, duration_days, price, max_participants, current_participants, image_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + tourColumns

	return scanTourRow(r.pool.QueryRow(ctx, query,
		tour.Name, tour.Description, tour.Destination, tour.DepartureDate,
		tour.Duration, tour.Price, tour.MaxParticipants, tour.CurrentParticipants,
		tour.ImageURL, tour.Status, tour.CreatedAt, tour.UpdatedAt,
	))
}

func (r *TourRepository) Update(ctx context.Context, id int64, tour *models.Tour) (*models.Tour, error) {
	tour.UpdatedAt = time.Now()

	query := `
		UPDATE tours SET name = $1, description = $2, destination = $3, departure_date = $4,
			duration_days = $5, price = $6, max_participants = $7, image_url = $8, status = $9, updated_at = $10
		WHERE id = $11
		RETURNING ` + tourColumns

	return scanTourRow(r.pool.QueryRow(ctx, query,
		tour.Name, tour.Description, tour.Destination, tour.DepartureDate,
		tour.Duration, tour.Price, tour.MaxParticipants, tour.ImageURL,
		tour.Status, tour.UpdatedAt, id,
	))
}

func (r *TourRepository) UpdateStatus(ctx context.Context, id int64, status models.TourStatus) error {
	query := `UPDATE tours SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *TourRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM tours WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *TourRepository) CountByStatus(ctx context.Context, status models.TourStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tours WHERE status = $1`, status).Scan(&count)
	return count, err
}

func (r *TourRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tours`).Scan(&count)
	return count, err
}
