package settings

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/store"
	"ms-reservation/internal/utils"
)

type SettingsDBLayer interface {
	store.SettingsRepository
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error
}

type SettingsService struct {
	DB          SettingsDBLayer
	Logger      *logger.Logger
	Clock       utils.Clock
	HorizonDays int
}

func NewSettingsService(db SettingsDBLayer, log *logger.Logger, clock utils.Clock, horizonDays int) *SettingsService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	if horizonDays <= 0 {
		horizonDays = 14
	}
	return &SettingsService{DB: db, Logger: log, Clock: clock, HorizonDays: horizonDays}
}

// NewProvisionedSettings returns settings with default slots for days days
// starting today.
func NewProvisionedSettings(venueID int64, days int, clock utils.Clock) *models.VenueSettings {
	s := models.EmptySettings(venueID)
	for _, date := range utils.DateRange(clock.Now(), days) {
		s.AvailableTimeSlots[date] = utils.DefaultTimeSlots()
	}
	return s
}

// Get never fails with NotFound: a venue with no stored settings gets an
// empty default that is not persisted. Stored settings have their slot map
// reshaped to the rolling window and written back when it changed.
func (s *SettingsService) Get(ctx context.Context, venueID int64) (*models.VenueSettings, error) {
	var result *models.VenueSettings
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		current, err := tx.GetSettings(ctx, venueID)
		if errors.Is(err, models.ErrNotFound) {
			result = models.EmptySettings(venueID)
			return nil
		}
		if err != nil {
			return err
		}

		window := s.rollingWindow(current.AvailableTimeSlots)
		if !reflect.DeepEqual(window, current.AvailableTimeSlots) {
			if err := tx.ReplaceTimeSlots(ctx, venueID, window); err != nil {
				return err
			}
			s.Logger.LogSettings("ROLL", venueID, fmt.Sprintf("Time slot window reset to %d days", len(window)))
		}
		current.AvailableTimeSlots = window
		current.Normalize()
		result = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load settings for venue %d: %w", venueID, err)
	}
	return result, nil
}

func (s *SettingsService) rollingWindow(current map[string][]string) map[string][]string {
	window := make(map[string][]string, s.HorizonDays)
	for _, date := range utils.DateRange(s.Clock.Now(), s.HorizonDays) {
		if slots, ok := current[date]; ok {
			window[date] = append([]string{}, slots...)
		} else {
			window[date] = utils.DefaultTimeSlots()
		}
	}
	return window
}

func validatePatch(p models.SettingsPatch) error {
	if p.UnavailableDates != nil {
		for _, d := range *p.UnavailableDates {
			if !utils.IsValidDateKey(d) {
				return fmt.Errorf("%w: %q", models.ErrInvalidDate, d)
			}
		}
	}
	if p.DailyCapacity != nil {
		for d, c := range *p.DailyCapacity {
			if !utils.IsValidDateKey(d) {
				return fmt.Errorf("%w: %q", models.ErrInvalidDate, d)
			}
			if c < 0 {
				return models.Validationf("capacity for %s must be non-negative", d)
			}
		}
	}
	if p.AvailableTimeSlots != nil {
		for d, slots := range *p.AvailableTimeSlots {
			if !utils.IsValidDateKey(d) {
				return fmt.Errorf("%w: %q", models.ErrInvalidDate, d)
			}
			for _, slot := range slots {
				if !utils.IsValidTimeOfDay(slot) {
					return fmt.Errorf("%w: %q on %s", models.ErrInvalidTime, slot, d)
				}
			}
		}
	}
	return nil
}

// Update upserts settings. Each supplied field replaces the stored value
// wholesale; omitted fields are untouched.
func (s *SettingsService) Update(ctx context.Context, venueID int64, patch models.SettingsPatch) (*models.VenueSettings, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var result *models.VenueSettings
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if _, err := tx.GetSettings(ctx, venueID); errors.Is(err, models.ErrNotFound) {
			if err := tx.CreateSettings(ctx, models.EmptySettings(venueID)); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if patch.UnavailableDates != nil {
			if err := tx.ReplaceUnavailableDates(ctx, venueID, *patch.UnavailableDates); err != nil {
				return err
			}
		}
		if patch.DailyCapacity != nil {
			if err := tx.ReplaceDailyCapacity(ctx, venueID, *patch.DailyCapacity); err != nil {
				return err
			}
		}
		if patch.AvailableTimeSlots != nil {
			if err := tx.ReplaceTimeSlots(ctx, venueID, *patch.AvailableTimeSlots); err != nil {
				return err
			}
		}

		updated, err := tx.GetSettings(ctx, venueID)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update settings for venue %d: %w", venueID, err)
	}
	s.Logger.LogSettings("UPDATE", venueID, "Settings updated")
	return result, nil
}

// ToggleDateAvailability flips date between open and closed.
func (s *SettingsService) ToggleDateAvailability(ctx context.Context, venueID int64, date string) (*models.VenueSettings, error) {
	if !utils.IsValidDateKey(date) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}

	var result *models.VenueSettings
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		closed, err := tx.ToggleUnavailableDate(ctx, venueID, date)
		if err != nil {
			return err
		}
		state := "open"
		if closed {
			state = "closed"
		}
		s.Logger.LogSettings("TOGGLE", venueID, fmt.Sprintf("%s is now %s", date, state))

		result, err = tx.GetSettings(ctx, venueID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle %s for venue %d: %w", date, venueID, err)
	}
	return result, nil
}

// SetDailyCapacity overrides one date and leaves the other dates alone.
func (s *SettingsService) SetDailyCapacity(ctx context.Context, venueID int64, date string, capacity int) (*models.VenueSettings, error) {
	if !utils.IsValidDateKey(date) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	if capacity < 0 {
		return nil, models.Validationf("capacity must be non-negative, got %d", capacity)
	}

	var result *models.VenueSettings
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.UpsertDailyCapacity(ctx, venueID, date, capacity); err != nil {
			return err
		}
		var err error
		result, err = tx.GetSettings(ctx, venueID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set capacity for venue %d: %w", venueID, err)
	}
	s.Logger.LogSettings("CAPACITY", venueID, fmt.Sprintf("%s set to %d", date, capacity))
	return result, nil
}

func (s *SettingsService) IsDateAvailable(ctx context.Context, venueID int64, date string) (bool, error) {
	if !utils.IsValidDateKey(date) {
		return false, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	st, err := s.DB.GetSettings(ctx, venueID)
	if errors.Is(err, models.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load settings for venue %d: %w", venueID, err)
	}
	return !st.IsUnavailable(date), nil
}

// Provision stores freshly provisioned settings for a new venue.
func (s *SettingsService) Provision(ctx context.Context, venueID int64, days int) (*models.VenueSettings, error) {
	st := NewProvisionedSettings(venueID, days, s.Clock)
	if err := s.DB.CreateSettings(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to provision settings for venue %d: %w", venueID, err)
	}
	s.Logger.LogSettings("PROVISION", venueID, fmt.Sprintf("%d days of default slots", days))
	return st, nil
}
