package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-reservation/internal/models"
)

func TestDefaultTimeSlots(t *testing.T) {
	slots := DefaultTimeSlots()

	assert.Len(t, slots, 25)
	assert.Equal(t, "16:00", slots[0])
	assert.Equal(t, "23:30", slots[15])
	assert.Equal(t, "00:00", slots[16])
	assert.Equal(t, "04:00", slots[len(slots)-1])
	assert.NotContains(t, slots, "04:30")
}

func TestFindNextAvailableTime(t *testing.T) {
	slots := DefaultTimeSlots()

	tests := []struct {
		name    string
		current string
		want    string
		ok      bool
	}{
		{"afternoon before opening", "14:10", "16:00", true},
		{"exactly on a slot is skipped", "16:00", "16:30", true},
		{"late evening rolls to midnight", "23:45", "00:00", true},
		{"after midnight stays on same night", "01:10", "01:30", true},
		{"last slot passed", "04:00", "", false},
		{"closing hour window", "04:20", "", false},
		{"morning belongs to the new day", "09:00", "16:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindNextAvailableTime(tt.current, slots)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindNextAvailableTimeUnsortedSlots(t *testing.T) {
	got, ok := FindNextAvailableTime("22:00", []string{"01:00", "23:00", "18:00"})
	require.True(t, ok)
	assert.Equal(t, "23:00", got)

	_, ok = FindNextAvailableTime("22:00", nil)
	assert.False(t, ok)
}

func TestDateKeyRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	for _, key := range []string{"2025-03-09", "2025-11-02", "2024-12-31", "2025-01-01", "2024-02-29"} {
		parsed, err := ParseDateKey(key, loc)
		require.NoError(t, err)
		assert.Equal(t, 0, parsed.Hour())
		assert.Equal(t, key, FormatDateKey(parsed))
	}
}

func TestParseDateKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "2025-13-01", "2025-02-30", "20250101", "2025/01/01"} {
		_, err := ParseDateKey(key, time.UTC)
		assert.True(t, errors.Is(err, models.ErrValidation), key)
	}
}

func TestDateRangeCrossesYearAndDST(t *testing.T) {
	start := time.Date(2024, 12, 30, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, []string{"2024-12-30", "2024-12-31", "2025-01-01"}, DateRange(start, 3))

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	dst := time.Date(2025, 3, 29, 0, 0, 0, 0, loc)
	assert.Equal(t, []string{"2025-03-29", "2025-03-30", "2025-03-31"}, DateRange(dst, 3))

	assert.Empty(t, DateRange(start, 0))
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2025-02-28", 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", got)

	_, err = AddDays("bad", 1)
	assert.ErrorIs(t, err, models.ErrInvalidDate)
}

func TestIsValidTimeOfDay(t *testing.T) {
	assert.True(t, IsValidTimeOfDay("00:00"))
	assert.True(t, IsValidTimeOfDay("23:59"))
	assert.False(t, IsValidTimeOfDay("24:00"))
	assert.False(t, IsValidTimeOfDay("9:00"))
	assert.False(t, IsValidTimeOfDay("12:60"))
	assert.False(t, IsValidTimeOfDay("noon"))
}

func TestIsPastDate(t *testing.T) {
	assert.True(t, IsPastDate("2025-05-31", "2025-06-01"))
	assert.False(t, IsPastDate("2025-06-01", "2025-06-01"))
	assert.False(t, IsPastDate("2025-06-02", "2025-06-01"))
}

func TestFormatLocalizedDate(t *testing.T) {
	ko, err := FormatLocalizedDate("2025-06-01", "ko-KR")
	require.NoError(t, err)
	assert.Equal(t, "2025년 6월 1일 (일)", ko)

	en, err := FormatLocalizedDate("2025-06-01", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "Sunday, June 1, 2025", en)

	fallback, err := FormatLocalizedDate("2025-06-01", "xx")
	require.NoError(t, err)
	assert.Equal(t, "Sunday, June 1, 2025", fallback)

	_, err = FormatLocalizedDate("June 1", "en")
	assert.ErrorIs(t, err, models.ErrInvalidDate)
}
