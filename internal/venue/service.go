package venue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
)

type VenueDBLayer interface {
	ListVenues(ctx context.Context) ([]models.Venue, error)
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	CreateVenue(ctx context.Context, v *models.Venue) error
	UpdateVenue(ctx context.Context, v *models.Venue) error
	DeleteVenue(ctx context.Context, id int64) error
}

type VenueService struct {
	DB     VenueDBLayer
	Logger *logger.Logger
	Clock  utils.Clock
}

func NewVenueService(db VenueDBLayer, log *logger.Logger, clock utils.Clock) *VenueService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	return &VenueService{DB: db, Logger: log, Clock: clock}
}

func (s *VenueService) List(ctx context.Context) ([]models.Venue, error) {
	venues, err := s.DB.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	return venues, nil
}

func (s *VenueService) Get(ctx context.Context, id int64) (*models.Venue, error) {
	v, err := s.DB.GetVenue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("venue %d: %w", id, err)
	}
	return v, nil
}

func validateVenue(v *models.Venue) error {
	if strings.TrimSpace(v.Name) == "" {
		return models.Validationf("venue name is required")
	}
	if v.Capacity < 0 {
		return models.Validationf("capacity must be non-negative, got %d", v.Capacity)
	}
	if v.Rating < 0 || v.Rating > 5 {
		return models.Validationf("rating must be between 0 and 5, got %.1f", v.Rating)
	}
	return nil
}

// Create stores v, assigning an id when v.ID is zero.
func (s *VenueService) Create(ctx context.Context, v models.Venue) (*models.Venue, error) {
	if err := validateVenue(&v); err != nil {
		return nil, err
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.Clock.Now()
	}
	if err := s.DB.CreateVenue(ctx, &v); err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	s.Logger.Info("VENUE", fmt.Sprintf("Created venue %d (%s)", v.ID, v.Name))
	return &v, nil
}

func (s *VenueService) Update(ctx context.Context, id int64, patch models.VenuePatch) (*models.Venue, error) {
	v, err := s.DB.GetVenue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("venue %d: %w", id, err)
	}

	patch.Apply(v)
	if err := validateVenue(v); err != nil {
		return nil, err
	}
	v.UpdatedAt = s.Clock.Now()

	if err := s.DB.UpdateVenue(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update venue %d: %w", id, err)
	}
	s.Logger.Info("VENUE", fmt.Sprintf("Updated venue %d", id))
	return v, nil
}

// Delete removes the venue and its settings. Reservations are kept as history.
func (s *VenueService) Delete(ctx context.Context, id int64) error {
	if err := s.DB.DeleteVenue(ctx, id); err != nil {
		return fmt.Errorf("failed to delete venue %d: %w", id, err)
	}
	s.Logger.Info("VENUE", fmt.Sprintf("Deleted venue %d", id))
	return nil
}

// Search applies every supplied filter conjunctively.
func (s *VenueService) Search(ctx context.Context, params models.VenueSearch) ([]models.Venue, error) {
	if params.MinRating < 0 {
		return nil, models.Validationf("minRating must be non-negative")
	}
	venues, err := s.DB.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search venues: %w", err)
	}
	out := make([]models.Venue, 0, len(venues))
	for _, v := range venues {
		if params.Matches(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

const defaultVenueImage = "https://images.unsplash.com/photo-1517248135467-4c7edcad34c4?w=800"

// NewOwnerVenue builds the venue record created during owner signup.
// Descriptive fields stay empty until the owner edits the profile.
func NewOwnerVenue(req models.OwnerSignupRequest, defaultCapacity int, now time.Time) models.Venue {
	capacity := req.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	image := req.ImageURL
	if image == "" {
		image = defaultVenueImage
	}
	return models.Venue{
		Name:      req.VenueName,
		Rating:    4.5,
		Address:   req.Address,
		Capacity:  capacity,
		Image:     image,
		Phone:     req.Phone,
		Website:   req.Email,
		CreatedAt: now,
	}
}
