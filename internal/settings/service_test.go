package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-reservation/internal/models"
	"ms-reservation/internal/settings"
	"ms-reservation/internal/store/memory"
	"ms-reservation/internal/utils"
)

func newService(t *testing.T, now time.Time) (*settings.SettingsService, *memory.Store, *utils.FixedClock) {
	t.Helper()
	db := memory.New()
	clock := utils.NewFixedClock(now)
	return settings.NewSettingsService(db, nil, clock, 14), db, clock
}

func TestGetMissingReturnsEmptyDefaultWithoutPersisting(t *testing.T) {
	svc, db, _ := newService(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	st, err := svc.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), st.VenueID)
	assert.Empty(t, st.UnavailableDates)
	assert.Empty(t, st.DailyCapacity)
	assert.Empty(t, st.AvailableTimeSlots)

	_, err = db.GetSettings(ctx, 9)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetRollsWindowForward(t *testing.T) {
	svc, db, clock := newService(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.Provision(ctx, 1, 10)
	require.NoError(t, err)
	custom := map[string][]string{
		"2025-05-30": {"18:00"},
		"2025-06-03": {"17:00", "17:30"},
	}
	require.NoError(t, db.ReplaceTimeSlots(ctx, 1, custom))

	clock.Advance(24 * time.Hour)
	st, err := svc.Get(ctx, 1)
	require.NoError(t, err)

	assert.Len(t, st.AvailableTimeSlots, 14)
	assert.NotContains(t, st.AvailableTimeSlots, "2025-05-30")
	assert.NotContains(t, st.AvailableTimeSlots, "2025-06-01")
	assert.Equal(t, []string{"17:00", "17:30"}, st.AvailableTimeSlots["2025-06-03"])
	assert.Equal(t, utils.DefaultTimeSlots(), st.AvailableTimeSlots["2025-06-02"])
	assert.Equal(t, utils.DefaultTimeSlots(), st.AvailableTimeSlots["2025-06-15"])

	stored, err := db.GetSettings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, st.AvailableTimeSlots, stored.AvailableTimeSlots)
}

func TestUpdateReplacesKeysWholesale(t *testing.T) {
	svc, _, _ := newService(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	caps := map[string]int{"2025-06-02": 10, "2025-06-03": 12}
	dates := []string{"2025-06-05"}
	_, err := svc.Update(ctx, 1, models.SettingsPatch{DailyCapacity: &caps, UnavailableDates: &dates})
	require.NoError(t, err)

	onlyOne := map[string]int{"2025-06-04": 7}
	st, err := svc.Update(ctx, 1, models.SettingsPatch{DailyCapacity: &onlyOne})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2025-06-04": 7}, st.DailyCapacity)
	assert.Equal(t, []string{"2025-06-05"}, st.UnavailableDates)
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	svc, _, _ := newService(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	bad := map[string]int{"2025-06-02": -1}
	_, err := svc.Update(ctx, 1, models.SettingsPatch{DailyCapacity: &bad})
	assert.ErrorIs(t, err, models.ErrValidation)

	badSlots := map[string][]string{"2025-06-02": {"25:00"}}
	_, err = svc.Update(ctx, 1, models.SettingsPatch{AvailableTimeSlots: &badSlots})
	assert.ErrorIs(t, err, models.ErrInvalidTime)
}

func TestToggleDateAvailability(t *testing.T) {
	svc, _, _ := newService(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	st, err := svc.ToggleDateAvailability(ctx, 1, "2025-06-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-02"}, st.UnavailableDates)

	ok, err := svc.IsDateAvailable(ctx, 1, "2025-06-02")
	require.NoError(t, err)
	assert.False(t, ok)

	st, err = svc.ToggleDateAvailability(ctx, 1, "2025-06-02")
	require.NoError(t, err)
	assert.Empty(t, st.UnavailableDates)

	ok, _ = svc.IsDateAvailable(ctx, 1, "2025-06-02")
	assert.True(t, ok)

	_, err = svc.ToggleDateAvailability(ctx, 1, "06/02/2025")
	assert.ErrorIs(t, err, models.ErrInvalidDate)
}

func TestSetDailyCapacityMergesSingleKey(t *testing.T) {
	svc, _, _ := newService(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := svc.SetDailyCapacity(ctx, 1, "2025-06-02", 10)
	require.NoError(t, err)
	st, err := svc.SetDailyCapacity(ctx, 1, "2025-06-03", 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2025-06-02": 10, "2025-06-03": 0}, st.DailyCapacity)

	_, err = svc.SetDailyCapacity(ctx, 1, "2025-06-03", -2)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestIsDateAvailableWithoutSettings(t *testing.T) {
	svc, _, _ := newService(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	ok, err := svc.IsDateAvailable(context.Background(), 77, "2025-06-02")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProvisionUsesSignupWindow(t *testing.T) {
	svc, _, _ := newService(t, time.Date(2025, 12, 28, 20, 0, 0, 0, time.UTC))

	st, err := svc.Provision(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Len(t, st.AvailableTimeSlots, 10)
	assert.Contains(t, st.AvailableTimeSlots, "2025-12-28")
	assert.Contains(t, st.AvailableTimeSlots, "2026-01-06")
}
