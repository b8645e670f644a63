package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tuanvn/tourbook/internal/models"
)

// FavoriteStore is the persistence surface for favorites.
type FavoriteStore interface {
	ListByUser(ctx context.Context, userID int64) ([]*models.Favorite, error)
	IsFavorite(ctx context.Context, userID, tourID int64) (bool, error)
	Add(ctx context.Context, userID, tourID int64) error
	Remove(ctx context.Context, userID, tourID int64) error
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// FavoriteService manages a user's saved tours.
type FavoriteService struct {
	favorites FavoriteStore
	tours     TourStore
}

func NewFavoriteService(favorites FavoriteStore, tours TourStore) *FavoriteService {
	return &FavoriteService{favorites: favorites, tours: tours}
}

// ListFavorites lists the user's saved tours, newest first.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID int64) ([]*models.Favorite, error) {
	return s.favorites.ListByUser(ctx, userID)
}

// AddFavorite saves a tour for the user. Saving twice is a no-op, not an
// error, so a double-clicked heart button never fails.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID, tourID int64) error {
	if _, err := s.tours.GetByID(ctx, tourID); err != nil {
		return err
	}

	if err := s.favorites.Add(ctx, userID, tourID); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unsaves a tour for the user.
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID, tourID int64) error {
	return s.favorites.Remove(ctx, userID, tourID)
}

// IsFavorite reports whether the user saved the tour.
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, tourID int64) (bool, error) {
	return s.favorites.IsFavorite(ctx, userID, tourID)
}
