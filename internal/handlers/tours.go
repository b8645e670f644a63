package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/internal/services"
	pkghttp "github.com/tuanvn/tourbook/pkg/http"
)

// TourServiceInterface defines the interface for the public tour catalog
type TourServiceInterface interface {
	GetTour(ctx context.Context, id int64) (*models.Tour, error)
	SearchTours(ctx context.Context, input services.TourSearchInput) ([]*models.Tour, error)
	RelatedTours(ctx context.Context, tourID int64, limit int) ([]*models.Tour, error)
	Destinations(ctx context.Context) ([]string, error)
}

// TourHandler serves the public catalog endpoints. No authentication
// required; browsing is open.
type TourHandler struct {
	service TourServiceInterface
}

func NewTourHandler(service TourServiceInterface) *TourHandler {
	return &TourHandler{service: service}
}

// TourResponse is the catalog view of a tour, with remaining capacity
// precomputed for display.
type TourResponse struct {
	*models.Tour
	AvailableSlots int `json:"available_slots"`
}

func toTourResponse(tour *models.Tour) TourResponse {
	return TourResponse{Tour: tour, AvailableSlots: tour.AvailableSlots()}
}

func toTourResponses(tours []*models.Tour) []TourResponse {
	out := make([]TourResponse, 0, len(tours))
	for _, tour := range tours {
		out = append(out, toTourResponse(tour))
	}
	return out
}

// List serves the catalog with optional search filters from the query
// string: keyword, destination, min_price, max_price.
func (h *TourHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	input := services.TourSearchInput{
		Keyword:     q.Get("keyword"),
		Destination: q.Get("destination"),
	}

	var err error
	if raw := q.Get("min_price"); raw != "" {
		if input.MinPrice, err = strconv.ParseInt(raw, 10, 64); err != nil {
			pkghttp.WriteBadRequest(w, "min_price must be a number")
			return
		}
	}
	if raw := q.Get("max_price"); raw != "" {
		if input.MaxPrice, err = strconv.ParseInt(raw, 10, 64); err != nil {
			pkghttp.WriteBadRequest(w, "max_price must be a number")
			return
		}
	}

	tours, err := h.service.SearchTours(r.Context(), input)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toTourResponses(tours))
}

// Get serves a single tour's detail view.
func (h *TourHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour id")
		return
	}

	tour, err := h.service.GetTour(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Tour not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toTourResponse(tour))
}

// Related suggests other tours to the same destination.
func (h *TourHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid tour id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	tours, err := h.service.RelatedTours(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Tour not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toTourResponses(tours))
}

// Destinations serves the distinct destination list for search filters.
func (h *TourHandler) Destinations(w http.ResponseWriter, r *http.Request) {
	destinations, err := h.service.Destinations(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, destinations)
}
