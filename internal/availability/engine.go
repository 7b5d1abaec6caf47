// Package availability computes remaining seats per venue and date and
// decides which venues can take a booking now or on a chosen day.
package availability

import (
	"context"
	"errors"
	"fmt"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
)

type AvailabilityDBLayer interface {
	ListVenues(ctx context.Context) ([]models.Venue, error)
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	GetSettings(ctx context.Context, venueID int64) (*models.VenueSettings, error)
	SumPartySize(ctx context.Context, venueID int64, date string, status models.ReservationStatus) (int, error)
}

// SettingsSource returns window-normalized settings for discovery reads.
type SettingsSource interface {
	Get(ctx context.Context, venueID int64) (*models.VenueSettings, error)
}

type Engine struct {
	DB       AvailabilityDBLayer
	Settings SettingsSource
	Clock    utils.Clock
	Logger   *logger.Logger
}

func NewEngine(db AvailabilityDBLayer, settings SettingsSource, clock utils.Clock, log *logger.Logger) *Engine {
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Engine{DB: db, Settings: settings, Clock: clock, Logger: log}
}

// WithDB returns a copy reading through db, typically a transaction.
func (e *Engine) WithDB(db AvailabilityDBLayer) *Engine {
	c := *e
	c.DB = db
	return &c
}

type VenueAvailability struct {
	Venue     models.Venue `json:"restaurant"`
	Date      string       `json:"date"`
	Remaining int          `json:"remainingCapacity"`
	Slots     []string     `json:"timeSlots,omitempty"`
	NextSlot  string       `json:"nextSlot,omitempty"`
	NextDay   bool         `json:"nextDay,omitempty"`
}

func (e *Engine) rawSettings(ctx context.Context, venueID int64) (*models.VenueSettings, error) {
	st, err := e.DB.GetSettings(ctx, venueID)
	if errors.Is(err, models.ErrNotFound) {
		return models.EmptySettings(venueID), nil
	}
	return st, err
}

func (e *Engine) discoverySettings(ctx context.Context, venueID int64) (*models.VenueSettings, error) {
	if e.Settings == nil {
		return e.rawSettings(ctx, venueID)
	}
	return e.Settings.Get(ctx, venueID)
}

func effective(v *models.Venue, st *models.VenueSettings, date string) int {
	if st.IsUnavailable(date) {
		return 0
	}
	if c, ok := st.CapacityFor(date); ok {
		return c
	}
	return v.Capacity
}

// EffectiveCapacity is zero on unavailable dates, else the per-date override
// or the venue's base capacity.
func (e *Engine) EffectiveCapacity(ctx context.Context, venueID int64, date string) (int, error) {
	v, err := e.DB.GetVenue(ctx, venueID)
	if err != nil {
		return 0, fmt.Errorf("venue %d: %w", venueID, err)
	}
	st, err := e.rawSettings(ctx, venueID)
	if err != nil {
		return 0, fmt.Errorf("failed to load settings for venue %d: %w", venueID, err)
	}
	return effective(v, st, date), nil
}

// RemainingCapacity subtracts confirmed party sizes only; pending requests
// hold no seats. Never negative.
func (e *Engine) RemainingCapacity(ctx context.Context, venueID int64, date string) (int, error) {
	if !utils.IsValidDateKey(date) {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	capacity, err := e.EffectiveCapacity(ctx, venueID, date)
	if err != nil {
		return 0, err
	}
	return e.remaining(ctx, venueID, date, capacity)
}

func (e *Engine) remaining(ctx context.Context, venueID int64, date string, capacity int) (int, error) {
	if capacity == 0 {
		return 0, nil
	}
	confirmed, err := e.DB.SumPartySize(ctx, venueID, date, models.StatusConfirmed)
	if err != nil {
		return 0, fmt.Errorf("failed to sum confirmed party size: %w", err)
	}
	if confirmed >= capacity {
		return 0, nil
	}
	return capacity - confirmed, nil
}

// CheckBooking is the pre-flight run before a pending reservation is stored.
func (e *Engine) CheckBooking(ctx context.Context, venueID int64, date string, partySize int) error {
	if partySize < 1 {
		return models.ErrInvalidPartySize
	}
	if !utils.IsValidDateKey(date) {
		return fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	v, err := e.DB.GetVenue(ctx, venueID)
	if err != nil {
		return fmt.Errorf("venue %d: %w", venueID, err)
	}
	st, err := e.rawSettings(ctx, venueID)
	if err != nil {
		return fmt.Errorf("failed to load settings for venue %d: %w", venueID, err)
	}
	if st.IsUnavailable(date) {
		return fmt.Errorf("%w: %s", models.ErrDateUnavailable, date)
	}
	left, err := e.remaining(ctx, venueID, date, effective(v, st, date))
	if err != nil {
		return err
	}
	if left == 0 {
		return fmt.Errorf("%w: %s", models.ErrFullyBooked, date)
	}
	if partySize > left {
		return fmt.Errorf("%w: requested %d, %d left", models.ErrCapacityExceeded, partySize, left)
	}
	return nil
}

func slotsFor(st *models.VenueSettings, date string, fallback bool) []string {
	if st.IsUnavailable(date) {
		return nil
	}
	if slots, ok := st.AvailableTimeSlots[date]; ok {
		return slots
	}
	if fallback {
		return utils.DefaultTimeSlots()
	}
	return nil
}

// NextInstantSlot returns the next slot after now today. When every slot has
// passed it falls back to the first slot, flagged nextDay. ok is false when
// today is closed or has no slots.
func (e *Engine) NextInstantSlot(ctx context.Context, venueID int64) (slot string, nextDay bool, ok bool, err error) {
	st, err := e.discoverySettings(ctx, venueID)
	if err != nil {
		return "", false, false, fmt.Errorf("failed to load settings for venue %d: %w", venueID, err)
	}
	return nextSlot(st, e.Clock)
}

func nextSlot(st *models.VenueSettings, clock utils.Clock) (string, bool, bool, error) {
	now := clock.Now()
	slots := slotsFor(st, utils.FormatDateKey(now), true)
	if len(slots) == 0 {
		return "", false, false, nil
	}
	if next, found := utils.FindNextAvailableTime(utils.TimeOfDay(now), slots); found {
		return next, false, true, nil
	}
	return slots[0], true, true, nil
}

func (e *Engine) BookableInstantly(ctx context.Context, venueID int64) (bool, error) {
	a, err := e.instant(ctx, venueID)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

func (e *Engine) BookableOn(ctx context.Context, venueID int64, date string) (bool, error) {
	if !utils.IsValidDateKey(date) {
		return false, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	a, err := e.onDate(ctx, venueID, date)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

func (e *Engine) instant(ctx context.Context, venueID int64) (*VenueAvailability, error) {
	v, err := e.DB.GetVenue(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("venue %d: %w", venueID, err)
	}
	st, err := e.discoverySettings(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for venue %d: %w", venueID, err)
	}
	slot, nextDay, ok, _ := nextSlot(st, e.Clock)
	if !ok {
		return nil, nil
	}
	today := utils.Today(e.Clock)
	left, err := e.remaining(ctx, venueID, today, effective(v, st, today))
	if err != nil {
		return nil, err
	}
	if left == 0 {
		return nil, nil
	}
	return &VenueAvailability{Venue: *v, Date: today, Remaining: left, NextSlot: slot, NextDay: nextDay}, nil
}

func (e *Engine) onDate(ctx context.Context, venueID int64, date string) (*VenueAvailability, error) {
	v, err := e.DB.GetVenue(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("venue %d: %w", venueID, err)
	}
	st, err := e.discoverySettings(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for venue %d: %w", venueID, err)
	}
	slots := slotsFor(st, date, false)
	if len(slots) == 0 {
		return nil, nil
	}
	left, err := e.remaining(ctx, venueID, date, effective(v, st, date))
	if err != nil {
		return nil, err
	}
	if left == 0 {
		return nil, nil
	}
	return &VenueAvailability{Venue: *v, Date: date, Remaining: left, Slots: append([]string{}, slots...)}, nil
}

// InstantVenues lists venues that can seat someone at the next slot today.
func (e *Engine) InstantVenues(ctx context.Context) ([]VenueAvailability, error) {
	return e.collect(ctx, e.instant)
}

// VenuesForDate lists venues open with free seats on date.
func (e *Engine) VenuesForDate(ctx context.Context, date string) ([]VenueAvailability, error) {
	if !utils.IsValidDateKey(date) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	return e.collect(ctx, func(ctx context.Context, id int64) (*VenueAvailability, error) {
		return e.onDate(ctx, id, date)
	})
}

func (e *Engine) collect(ctx context.Context, check func(context.Context, int64) (*VenueAvailability, error)) ([]VenueAvailability, error) {
	venues, err := e.DB.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	out := make([]VenueAvailability, 0, len(venues))
	for _, v := range venues {
		a, err := check(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		if a != nil {
			out = append(out, *a)
		}
	}
	e.Logger.Debug("AVAILABILITY", fmt.Sprintf("%d of %d venues bookable", len(out), len(venues)))
	return out, nil
}
