// Package store defines the persistence boundary shared by the in-memory and
// SQL implementations. Every method is atomic on its own; multi-step
// read-modify-write sequences go through RunInTx.
package store

import (
	"context"

	"ms-reservation/internal/models"
)

type VenueRepository interface {
	ListVenues(ctx context.Context) ([]models.Venue, error)
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	// CreateVenue assigns an id when v.ID is zero.
	CreateVenue(ctx context.Context, v *models.Venue) error
	UpdateVenue(ctx context.Context, v *models.Venue) error
	DeleteVenue(ctx context.Context, id int64) error
}

type SettingsRepository interface {
	// GetSettings returns models.ErrSettingsNotFound when nothing is stored.
	GetSettings(ctx context.Context, venueID int64) (*models.VenueSettings, error)
	CreateSettings(ctx context.Context, s *models.VenueSettings) error
	ReplaceUnavailableDates(ctx context.Context, venueID int64, dates []string) error
	ReplaceDailyCapacity(ctx context.Context, venueID int64, capacity map[string]int) error
	ReplaceTimeSlots(ctx context.Context, venueID int64, slots map[string][]string) error
	// ToggleUnavailableDate flips date and reports whether it is now unavailable.
	ToggleUnavailableDate(ctx context.Context, venueID int64, date string) (bool, error)
	UpsertDailyCapacity(ctx context.Context, venueID int64, date string, capacity int) error
}

type ReservationRepository interface {
	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	GetReservationByConfirmation(ctx context.Context, code string) (*models.Reservation, error)
	UpdateReservation(ctx context.Context, r *models.Reservation) error
	DeleteReservation(ctx context.Context, id string) error
	// ListReservations returns matches ordered by date, time, then creation.
	ListReservations(ctx context.Context, f models.ReservationFilter) ([]models.Reservation, error)
	SumPartySize(ctx context.Context, venueID int64, date string, status models.ReservationStatus) (int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByLoginID(ctx context.Context, loginID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

type Store interface {
	VenueRepository
	SettingsRepository
	ReservationRepository
	UserRepository

	// RunInTx runs fn against a transactional view. Any error returned by fn
	// discards every write fn made.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Close() error
}
