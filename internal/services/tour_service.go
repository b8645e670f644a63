package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tuanvn/tourbook/internal/models"
)

// TourCatalogStore is the full persistence surface for tour management.
// TourStore covers the read path the booking flow needs; this adds the
// catalog browsing and admin CRUD operations.
type TourCatalogStore interface {
	TourStore
	List(ctx context.Context) ([]*models.Tour, error)
	ListByStatus(ctx context.Context, status models.TourStatus) ([]*models.Tour, error)
	Filter(ctx context.Context, keyword, destination string, minPrice, maxPrice int64) ([]*models.Tour, error)
	Related(ctx context.Context, destination string, excludeTourID int64, limit int) ([]*models.Tour, error)
	Destinations(ctx context.Context) ([]string, error)
	Create(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	Update(ctx context.Context, id int64, tour *models.Tour) (*models.Tour, error)
	UpdateStatus(ctx context.Context, id int64, status models.TourStatus) error
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, status models.TourStatus) (int, error)
	Count(ctx context.Context) (int, error)
}

// TourSearchInput carries the catalog search filters. Zero values mean
// "no filter" for their field.
type TourSearchInput struct {
	Keyword     string
	Destination string
	MinPrice    int64
	MaxPrice    int64
}

// TourService serves the public catalog and the admin tour CRUD.
type TourService struct {
	tours TourCatalogStore
}

func NewTourService(tours TourCatalogStore) *TourService {
	return &TourService{tours: tours}
}

// GetTour loads a single tour. Inactive tours are still viewable; only
// booking them is refused.
func (s *TourService) GetTour(ctx context.Context, id int64) (*models.Tour, error) {
	return s.tours.GetByID(ctx, id)
}

// SearchTours lists active tours matching the filters. The public catalog
// never shows inactive tours.
func (s *TourService) SearchTours(ctx context.Context, input TourSearchInput) ([]*models.Tour, error) {
	if input.MinPrice < 0 || input.MaxPrice < 0 {
		return nil, fmt.Errorf("price filters must not be negative: %w", models.ErrBadRequest)
	}
	if input.MaxPrice > 0 && input.MinPrice > input.MaxPrice {
		return nil, fmt.Errorf("min price exceeds max price: %w", models.ErrBadRequest)
	}

	input.Keyword = strings.TrimSpace(input.Keyword)
	input.Destination = strings.TrimSpace(input.Destination)

	if input.Keyword == "" && input.Destination == "" && input.MinPrice == 0 && input.MaxPrice == 0 {
		return s.tours.ListByStatus(ctx, models.TourActive)
	}
	return s.tours.Filter(ctx, input.Keyword, input.Destination, input.MinPrice, input.MaxPrice)
}

// RelatedTours suggests other active tours to the same destination.
func (s *TourService) RelatedTours(ctx context.Context, tourID int64, limit int) ([]*models.Tour, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	if limit < 1 || limit > 20 {
		limit = 4
	}
	return s.tours.Related(ctx, tour.Destination, tour.ID, limit)
}

// Destinations lists the distinct destinations of active tours, for the
// catalog's filter dropdown.
func (s *TourService) Destinations(ctx context.Context) ([]string, error) {
	return s.tours.Destinations(ctx)
}

// ListAllTours is the admin listing: every tour regardless of status.
func (s *TourService) ListAllTours(ctx context.Context) ([]*models.Tour, error) {
	return s.tours.List(ctx)
}

// CreateTour adds a tour to the catalog.
func (s *TourService) CreateTour(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	if err := validateTour(tour); err != nil {
		return nil, err
	}

	if tour.Status == "" {
		tour.Status = models.TourActive
	}
	return s.tours.Create(ctx, tour)
}

// UpdateTour replaces a tour's editable fields. The participant counter is
// not editable here; it moves only through bookings.
func (s *TourService) UpdateTour(ctx context.Context, id int64, tour *models.Tour) (*models.Tour, error) {
	if err := validateTour(tour); err != nil {
		return nil, err
	}
	return s.tours.Update(ctx, id, tour)
}

// SetTourStatus activates or deactivates a tour. Input is normalized to
// uppercase before validation.
func (s *TourService) SetTourStatus(ctx context.Context, id int64, rawStatus string) error {
	status, err := models.ParseTourStatus(rawStatus)
	if err != nil {
		return err
	}
	return s.tours.UpdateStatus(ctx, id, status)
}

// DeleteTour removes a tour. Existing bookings block the delete at the
// database level and surface as ErrBadRequest.
func (s *TourService) DeleteTour(ctx context.Context, id int64) error {
	return s.tours.Delete(ctx, id)
}

// Counts returns total and active tour counts for the admin dashboard.
func (s *TourService) Counts(ctx context.Context) (total, active int, err error) {
	if total, err = s.tours.Count(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to count tours: %w", err)
	}
	if active, err = s.tours.CountByStatus(ctx, models.TourActive); err != nil {
		return 0, 0, fmt.Errorf("failed to count active tours: %w", err)
	}
	return total, active, nil
}

func validateTour(tour *models.Tour) error {
	switch {
	case strings.TrimSpace(tour.Name) == "":
		return fmt.Errorf("tour name is required: %w", models.ErrBadRequest)
	case strings.TrimSpace(tour.Destination) == "":
		return fmt.Errorf("tour destination is required: %w", models.ErrBadRequest)
	case tour.Price < 0:
		return fmt.Errorf("tour price must not be negative: %w", models.ErrBadRequest)
	case tour.MaxParticipants < 1:
		return fmt.Errorf("tour must allow at least 1 participant: %w", models.ErrBadRequest)
	case tour.Duration < 1:
		return fmt.Errorf("tour duration must be at least 1 day: %w", models.ErrBadRequest)
	}
	return nil
}
