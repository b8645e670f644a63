package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tuanvn/tourbook/internal/database"
	"github.com/tuanvn/tourbook/internal/models"
)

type FavoriteRepository struct {
	pool *pgxpool.Pool
}

func NewFavoriteRepository(db *database.DB) *FavoriteRepository {
	return &FavoriteRepository{pool: db.Pool}
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Favorite, error) {
	query := `
		SELECT f.id, f.user_id, f.tour_id, f.created_at,
		       t.name, t.destination, t.price, t.image_url, t.status
		FROM favorites f
		JOIN tours t ON t.id = f.tour_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]*models.Favorite, 0)
	for rows.Next() {
		var fav models.Favorite
		var imageURL *string

		err := rows.Scan(
			&fav.ID, &fav.UserID, &fav.TourID, &fav.CreatedAt,
			&fav.TourName, &fav.TourDestination, &fav.TourPrice,
			&imageURL, &fav.TourStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		if imageURL != nil {
			fav.TourImageURL = *imageURL
		}
		favorites = append(favorites, &fav)
	}

	return favorites, rows.Err()
}

func (r *FavoriteRepository) IsFavorite(ctx context.Context, userID, tourID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND tour_id = $2)`
	err := r.pool.QueryRow(ctx, query, userID, tourID).Scan(&exists)
	return exists, err
}

func (r *FavoriteRepository) Add(ctx context.Context, userID, tourID int64) error {
	query := `INSERT INTO favorites (user_id, tour_id) VALUES ($1, $2)`

	_, err := r.pool.Exec(ctx, query, userID, tourID)
	return database.MapPostgresError(err)
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, tourID int64) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND tour_id = $2`

	result, err := r.pool.Exec(ctx, query, userID, tourID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *FavoriteRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}
