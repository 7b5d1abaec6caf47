package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-reservation/internal/availability"
	"ms-reservation/internal/models"
	"ms-reservation/internal/settings"
	"ms-reservation/internal/store/memory"
	"ms-reservation/internal/utils"
)

type fixture struct {
	db     *memory.Store
	clock  *utils.FixedClock
	engine *availability.Engine
	venue  *models.Venue
}

func setup(t *testing.T, now time.Time) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.New()
	clock := utils.NewFixedClock(now)

	v := &models.Venue{Name: "Hanok Table", Capacity: 50}
	require.NoError(t, db.CreateVenue(ctx, v))

	settingsSvc := settings.NewSettingsService(db, nil, clock, 14)
	return &fixture{
		db:     db,
		clock:  clock,
		engine: availability.NewEngine(db, settingsSvc, clock, nil),
		venue:  v,
	}
}

func (f *fixture) book(t *testing.T, id, date string, size int, status models.ReservationStatus) {
	t.Helper()
	require.NoError(t, f.db.CreateReservation(context.Background(), &models.Reservation{
		ID: id, VenueID: f.venue.ID, Date: date, Time: "19:00", PartySize: size, Status: status,
		ConfirmationNumber: "BK-" + id,
	}))
}

func TestRemainingCapacitySubtractsConfirmedOnly(t *testing.T) {
	f := setup(t, time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	f.book(t, "a", "2025-06-01", 20, models.StatusConfirmed)
	f.book(t, "b", "2025-06-01", 15, models.StatusConfirmed)
	f.book(t, "c", "2025-06-01", 10, models.StatusPending)
	f.book(t, "d", "2025-06-01", 5, models.StatusRejected)
	f.book(t, "e", "2025-06-01", 5, models.StatusCancelled)

	left, err := f.engine.RemainingCapacity(ctx, f.venue.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 15, left)
}

func TestRemainingCapacityNeverNegative(t *testing.T) {
	f := setup(t, time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, f.db.UpsertDailyCapacity(ctx, f.venue.ID, "2025-06-01", 10))
	f.book(t, "a", "2025-06-01", 12, models.StatusConfirmed)

	left, err := f.engine.RemainingCapacity(ctx, f.venue.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, left)
}

func TestUnavailableDateWinsOverOverride(t *testing.T) {
	f := setup(t, time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, f.db.UpsertDailyCapacity(ctx, f.venue.ID, "2025-06-01", 80))
	_, err := f.db.ToggleUnavailableDate(ctx, f.venue.ID, "2025-06-01")
	require.NoError(t, err)

	capacity, err := f.engine.EffectiveCapacity(ctx, f.venue.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, capacity)

	left, err := f.engine.RemainingCapacity(ctx, f.venue.ID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	err = f.engine.CheckBooking(ctx, f.venue.ID, "2025-06-01", 2)
	assert.ErrorIs(t, err, models.ErrDateUnavailable)
}

func TestEffectiveCapacityUsesOverride(t *testing.T) {
	f := setup(t, time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, f.db.UpsertDailyCapacity(ctx, f.venue.ID, "2025-06-02", 12))

	c, _ := f.engine.EffectiveCapacity(ctx, f.venue.ID, "2025-06-02")
	assert.Equal(t, 12, c)
	c, _ = f.engine.EffectiveCapacity(ctx, f.venue.ID, "2025-06-03")
	assert.Equal(t, 50, c)

	_, err := f.engine.EffectiveCapacity(ctx, 404, "2025-06-03")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCheckBooking(t *testing.T) {
	f := setup(t, time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, f.db.UpsertDailyCapacity(ctx, f.venue.ID, "2025-06-01", 8))
	assert.ErrorIs(t, f.engine.CheckBooking(ctx, f.venue.ID, "2025-06-01", 10), models.ErrCapacityExceeded)
	assert.NoError(t, f.engine.CheckBooking(ctx, f.venue.ID, "2025-06-01", 8))
	assert.ErrorIs(t, f.engine.CheckBooking(ctx, f.venue.ID, "2025-06-01", 0), models.ErrInvalidPartySize)
	assert.ErrorIs(t, f.engine.CheckBooking(ctx, f.venue.ID, "June 1", 2), models.ErrInvalidDate)

	f.book(t, "a", "2025-06-01", 8, models.StatusConfirmed)
	err := f.engine.CheckBooking(ctx, f.venue.ID, "2025-06-01", 1)
	assert.ErrorIs(t, err, models.ErrFullyBooked)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestNextInstantSlot(t *testing.T) {
	f := setup(t, time.Date(2025, 6, 1, 23, 45, 0, 0, time.UTC))
	ctx := context.Background()

	slot, nextDay, ok, err := f.engine.NextInstantSlot(ctx, f.venue.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, nextDay)
	assert.Equal(t, "00:00", slot)

	f.clock.Set(time.Date(2025, 6, 1, 4, 10, 0, 0, time.UTC))
	slot, nextDay, ok, err = f.engine.NextInstantSlot(ctx, f.venue.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, nextDay)
	assert.Equal(t, "16:00", slot)

	_, err = f.db.ToggleUnavailableDate(ctx, f.venue.ID, "2025-06-01")
	require.NoError(t, err)
	_, _, ok, err = f.engine.NextInstantSlot(ctx, f.venue.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBookableInstantlyRequiresCapacity(t *testing.T) {
	f := setup(t, time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	ctx := context.Background()

	ok, err := f.engine.BookableInstantly(ctx, f.venue.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	f.book(t, "full", "2025-06-01", 50, models.StatusConfirmed)
	ok, err = f.engine.BookableInstantly(ctx, f.venue.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBookableOnRequiresConfiguredSlots(t *testing.T) {
	f := setup(t, time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	ctx := context.Background()

	ok, err := f.engine.BookableOn(ctx, f.venue.ID, "2025-06-03")
	require.NoError(t, err)
	assert.False(t, ok, "no settings stored means no slots")

	require.NoError(t, f.db.CreateSettings(ctx, settings.NewProvisionedSettings(f.venue.ID, 10, f.clock)))
	ok, err = f.engine.BookableOn(ctx, f.venue.ID, "2025-06-03")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.db.ToggleUnavailableDate(ctx, f.venue.ID, "2025-06-03")
	require.NoError(t, err)
	ok, _ = f.engine.BookableOn(ctx, f.venue.ID, "2025-06-03")
	assert.False(t, ok)
}

func TestDiscoveryListings(t *testing.T) {
	f := setup(t, time.Date(2025, 6, 1, 18, 10, 0, 0, time.UTC))
	ctx := context.Background()

	second := &models.Venue{Name: "Tiny Bar", Capacity: 4}
	require.NoError(t, f.db.CreateVenue(ctx, second))
	f.book(t, "x", "2025-06-01", 4, models.StatusConfirmed)
	require.NoError(t, f.db.UpdateReservation(ctx, &models.Reservation{
		ID: "x", VenueID: second.ID, Date: "2025-06-01", Time: "19:00", PartySize: 4,
		Status: models.StatusConfirmed, ConfirmationNumber: "BK-x",
	}))

	instant, err := f.engine.InstantVenues(ctx)
	require.NoError(t, err)
	require.Len(t, instant, 1)
	assert.Equal(t, f.venue.ID, instant[0].Venue.ID)
	assert.Equal(t, "18:30", instant[0].NextSlot)
	assert.Equal(t, 50, instant[0].Remaining)

	require.NoError(t, f.db.CreateSettings(ctx, settings.NewProvisionedSettings(f.venue.ID, 10, f.clock)))
	scheduled, err := f.engine.VenuesForDate(ctx, "2025-06-05")
	require.NoError(t, err)
	require.Len(t, scheduled, 1)
	assert.Len(t, scheduled[0].Slots, 25)
}
