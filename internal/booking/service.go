package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-reservation/internal/availability"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/store"
	"ms-reservation/internal/utils"
)

type BookingDBLayer interface {
	store.ReservationRepository
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error
}

// EventPublisher receives every reservation change after it commits.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error
}

type Options struct {
	ConfirmationPrefix       string
	EnforceCapacityOnConfirm bool
}

type BookingService struct {
	DB           BookingDBLayer
	Availability *availability.Engine
	Publisher    EventPublisher
	Logger       *logger.Logger
	Clock        utils.Clock
	Options      Options
}

func NewBookingService(db BookingDBLayer, engine *availability.Engine, publisher EventPublisher, log *logger.Logger, clock utils.Clock, opts Options) *BookingService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	if opts.ConfirmationPrefix == "" {
		opts.ConfirmationPrefix = "BK"
	}
	return &BookingService{
		DB:           db,
		Availability: engine,
		Publisher:    publisher,
		Logger:       log,
		Clock:        clock,
		Options:      opts,
	}
}

func (s *BookingService) publish(ctx context.Context, typ models.ReservationEventType, r *models.Reservation) {
	if s.Publisher == nil {
		return
	}
	evt := models.ReservationEvent{
		Type:        typ,
		VenueID:     r.VenueID,
		Reservation: r,
		Date:        r.Date,
		OccurredAt:  s.Clock.Now(),
	}
	if err := s.Publisher.PublishReservationEvent(ctx, evt); err != nil {
		s.Logger.Warn("EVENTS", fmt.Sprintf("Failed to publish %s for %s: %v", typ, r.ID, err))
	}
}

func validateInput(in models.ReservationInput) error {
	if strings.TrimSpace(in.UserID) == "" {
		return models.Validationf("userId is required")
	}
	if in.VenueID <= 0 {
		return models.Validationf("restaurantId is required")
	}
	if !utils.IsValidDateKey(in.Date) {
		return fmt.Errorf("%w: %q", models.ErrInvalidDate, in.Date)
	}
	if !utils.IsValidTimeOfDay(in.Time) {
		return fmt.Errorf("%w: %q", models.ErrInvalidTime, in.Time)
	}
	if in.PartySize < 1 {
		return models.ErrInvalidPartySize
	}
	if strings.TrimSpace(in.GuestName) == "" {
		return models.Validationf("guestName is required")
	}
	if in.Mode != "" && !in.Mode.Valid() {
		return models.Validationf("unknown booking mode %q", in.Mode)
	}
	return nil
}

// Create runs the availability pre-flight and stores a pending reservation.
// The check and the insert share one transaction.
func (s *BookingService) Create(ctx context.Context, in models.ReservationInput) (*models.Reservation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if utils.IsPastDate(in.Date, utils.Today(s.Clock)) {
		return nil, fmt.Errorf("%w: %s is in the past", models.ErrInvalidDate, in.Date)
	}
	if in.Mode == "" {
		in.Mode = models.ModeScheduled
	}

	var created *models.Reservation
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		v, err := tx.GetVenue(ctx, in.VenueID)
		if err != nil {
			return err
		}
		if err := s.Availability.WithDB(tx).CheckBooking(ctx, in.VenueID, in.Date, in.PartySize); err != nil {
			return err
		}

		now := s.Clock.Now()
		code, err := s.uniqueConfirmationNumber(ctx, tx, now)
		if err != nil {
			return err
		}
		r := &models.Reservation{
			ID:                 utils.GenerateReservationID(),
			UserID:             in.UserID,
			VenueID:            in.VenueID,
			VenueName:          v.Name,
			Date:               in.Date,
			Time:               in.Time,
			PartySize:          in.PartySize,
			GuestName:          strings.TrimSpace(in.GuestName),
			GuestPhone:         strings.TrimSpace(in.GuestPhone),
			Status:             models.StatusPending,
			Mode:               in.Mode,
			ConfirmationNumber: code,
			CreatedAt:          now,
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	s.Logger.LogReservation("CREATE", created.ID, fmt.Sprintf("venue=%d date=%s time=%s party=%d code=%s",
		created.VenueID, created.Date, created.Time, created.PartySize, created.ConfirmationNumber))
	s.publish(ctx, models.EventReservationCreated, created)
	return created, nil
}

const maxCodeAttempts = 5

// uniqueConfirmationNumber redraws the random suffix while it collides with
// an existing reservation.
func (s *BookingService) uniqueConfirmationNumber(ctx context.Context, tx store.Store, now time.Time) (string, error) {
	var code string
	for i := 0; i < maxCodeAttempts; i++ {
		code = utils.GenerateConfirmationNumber(s.Options.ConfirmationPrefix, now)
		_, err := tx.GetReservationByConfirmation(ctx, code)
		if errors.Is(err, models.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: no free confirmation number for %s", models.ErrConflict, now.Format("2006-01-02"))
}

func (s *BookingService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := s.DB.GetReservation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reservation %s: %w", id, err)
	}
	return r, nil
}

func (s *BookingService) GetByConfirmationCode(ctx context.Context, code string) (*models.Reservation, error) {
	r, err := s.DB.GetReservationByConfirmation(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("confirmation %s: %w", code, err)
	}
	return r, nil
}

// Update edits a pending reservation. A changed date or party size re-runs
// the pre-flight.
func (s *BookingService) Update(ctx context.Context, id string, patch models.ReservationPatch) (*models.Reservation, error) {
	if patch.Date != nil && !utils.IsValidDateKey(*patch.Date) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDate, *patch.Date)
	}
	if patch.Date != nil && utils.IsPastDate(*patch.Date, utils.Today(s.Clock)) {
		return nil, fmt.Errorf("%w: %s is in the past", models.ErrInvalidDate, *patch.Date)
	}
	if patch.Time != nil && !utils.IsValidTimeOfDay(*patch.Time) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidTime, *patch.Time)
	}
	if patch.PartySize != nil && *patch.PartySize < 1 {
		return nil, models.ErrInvalidPartySize
	}

	var updated *models.Reservation
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if r.Status != models.StatusPending {
			return models.Validationf("only pending reservations can be edited, %s is %s", id, r.Status)
		}

		before := *r
		patch.Apply(r)
		if r.Date != before.Date || r.PartySize != before.PartySize {
			if err := s.Availability.WithDB(tx).CheckBooking(ctx, r.VenueID, r.Date, r.PartySize); err != nil {
				return err
			}
		}
		r.UpdatedAt = s.Clock.Now()
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update reservation %s: %w", id, err)
	}

	s.Logger.LogReservation("UPDATE", id, "Reservation details updated")
	s.publish(ctx, models.EventReservationUpdated, updated)
	return updated, nil
}

// Delete removes a cancelled or rejected reservation. Absent ids fail with
// NotFound.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	var deleted *models.Reservation
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if !Deletable(r.Status) {
			return fmt.Errorf("%w: %s is %s", models.ErrNotDeletable, id, r.Status)
		}
		if err := tx.DeleteReservation(ctx, id); err != nil {
			return err
		}
		deleted = r
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete reservation %s: %w", id, err)
	}

	s.Logger.LogReservation("DELETE", id, "Reservation removed")
	s.publish(ctx, models.EventReservationDeleted, deleted)
	return nil
}

func (s *BookingService) Confirm(ctx context.Context, id string) (*models.Reservation, error) {
	return s.transition(ctx, id, models.StatusConfirmed)
}

func (s *BookingService) Reject(ctx context.Context, id string) (*models.Reservation, error) {
	return s.transition(ctx, id, models.StatusRejected)
}

func (s *BookingService) Cancel(ctx context.Context, id string) (*models.Reservation, error) {
	return s.transition(ctx, id, models.StatusCancelled)
}

// transition applies a lifecycle move. Illegal moves fail with
// ErrInvalidTransition and leave the record untouched.
func (s *BookingService) transition(ctx context.Context, id string, to models.ReservationStatus) (*models.Reservation, error) {
	var result *models.Reservation
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return err
		}
		if IsTerminal(r.Status) {
			return fmt.Errorf("%w: %s is already %s", models.ErrInvalidTransition, id, r.Status)
		}
		if !CanTransition(r.Status, to) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, r.Status, to)
		}

		if to == models.StatusConfirmed && s.Options.EnforceCapacityOnConfirm {
			left, err := s.Availability.WithDB(tx).RemainingCapacity(ctx, r.VenueID, r.Date)
			if err != nil {
				return err
			}
			if r.PartySize > left {
				return fmt.Errorf("%w: confirming %d with %d left", models.ErrCapacityExceeded, r.PartySize, left)
			}
		}

		r.Status = to
		r.UpdatedAt = s.Clock.Now()
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mark reservation %s %s: %w", id, to, err)
	}

	s.Logger.LogReservation(strings.ToUpper(string(to)), id, fmt.Sprintf("venue=%d date=%s", result.VenueID, result.Date))
	s.publish(ctx, models.EventForStatus(to), result)
	return result, nil
}

func (s *BookingService) ConfirmedPartySizeForDate(ctx context.Context, venueID int64, date string) (int, error) {
	if !utils.IsValidDateKey(date) {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	total, err := s.DB.SumPartySize(ctx, venueID, date, models.StatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to sum confirmed party size: %w", err)
	}
	return total, nil
}

func (s *BookingService) ListByVenue(ctx context.Context, venueID int64) ([]models.Reservation, error) {
	return s.list(ctx, models.ReservationFilter{VenueID: venueID})
}

func (s *BookingService) ListByUser(ctx context.Context, userID string) ([]models.Reservation, error) {
	return s.list(ctx, models.ReservationFilter{UserID: userID})
}

// ListByDateRange returns a venue's reservations with from <= date <= to.
func (s *BookingService) ListByDateRange(ctx context.Context, venueID int64, from, to string) ([]models.Reservation, error) {
	if !utils.IsValidDateKey(from) || !utils.IsValidDateKey(to) {
		return nil, fmt.Errorf("%w: %q..%q", models.ErrInvalidDate, from, to)
	}
	if utils.CompareDateKeys(from, to) > 0 {
		return nil, models.Validationf("from %s is after to %s", from, to)
	}
	return s.list(ctx, models.ReservationFilter{VenueID: venueID, FromDate: from, ToDate: to})
}

func (s *BookingService) list(ctx context.Context, f models.ReservationFilter) ([]models.Reservation, error) {
	out, err := s.DB.ListReservations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return out, nil
}

// UserBuckets returns the user's reservations split into upcoming and past.
func (s *BookingService) UserBuckets(ctx context.Context, userID string) (models.ReservationBuckets, error) {
	list, err := s.ListByUser(ctx, userID)
	if err != nil {
		return models.ReservationBuckets{}, err
	}
	return Partition(list, s.Clock.Now()), nil
}
