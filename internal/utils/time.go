package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"

	"ms-reservation/internal/models"
)

const (
	DateKeyLayout   = "2006-01-02"
	TimeOfDayLayout = "15:04"
)

// lateNightCutoffHour is the last hour that still belongs to the previous
// operating day. Slots in 00:00-04:59 sort after 23:59.
const lateNightCutoffHour = 4

// FormatDateKey renders t as YYYY-MM-DD in t's own location.
func FormatDateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey returns local midnight of key in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrInvalidDate, key)
	}
	return t, nil
}

// IsValidDateKey reports whether key is a well-formed calendar date.
func IsValidDateKey(key string) bool {
	_, err := time.Parse(DateKeyLayout, key)
	return err == nil
}

// AddDays moves a date key by n calendar days.
func AddDays(key string, n int) (string, error) {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidDate, key)
	}
	return FormatDateKey(t.AddDate(0, 0, n)), nil
}

// DateRange lists days consecutive date keys starting at start's local day.
// AddDate keeps calendar arithmetic correct across DST changes.
func DateRange(start time.Time, days int) []string {
	if days <= 0 {
		return []string{}
	}
	base := time.Date(start.Year(), start.Month(), start.Day(), 12, 0, 0, 0, start.Location())
	out := make([]string, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, FormatDateKey(base.AddDate(0, 0, i)))
	}
	return out
}

// CompareDateKeys returns -1, 0 or 1. Date keys order lexicographically.
func CompareDateKeys(a, b string) int {
	return strings.Compare(a, b)
}

// IsPastDate reports whether key is strictly before today.
func IsPastDate(key, today string) bool {
	return CompareDateKeys(key, today) < 0
}

// TimeOfDay renders t as HH:MM.
func TimeOfDay(t time.Time) string {
	return t.Format(TimeOfDayLayout)
}

// IsValidTimeOfDay accepts zero-padded 24h HH:MM.
func IsValidTimeOfDay(s string) bool {
	_, ok := parseMinutes(s)
	return ok && len(s) == 5
}

func parseMinutes(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// operatingMinutes places late-night hours after the evening ones.
func operatingMinutes(s string) (int, bool) {
	mins, ok := parseMinutes(s)
	if !ok {
		return 0, false
	}
	if mins/60 <= lateNightCutoffHour {
		mins += 24 * 60
	}
	return mins, true
}

// DefaultTimeSlots is the standard 16:00 to 04:00 evening in 30 minute steps.
func DefaultTimeSlots() []string {
	slots := make([]string, 0, 25)
	for hour := 16; hour < 24; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour), fmt.Sprintf("%02d:30", hour))
	}
	for hour := 0; hour <= 4; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
		if hour < 4 {
			slots = append(slots, fmt.Sprintf("%02d:30", hour))
		}
	}
	return slots
}

// FindNextAvailableTime returns the earliest slot strictly after current on
// the operating-day ordering. ok is false when nothing is left today.
func FindNextAvailableTime(current string, slots []string) (string, bool) {
	now, valid := operatingMinutes(current)
	if !valid {
		return "", false
	}
	best, bestMins := "", 0
	for _, slot := range slots {
		mins, ok := operatingMinutes(slot)
		if !ok || mins <= now {
			continue
		}
		if best == "" || mins < bestMins {
			best, bestMins = slot, mins
		}
	}
	return best, best != ""
}

var (
	supportedLocales = []language.Tag{language.English, language.Korean}
	localeMatcher    = language.NewMatcher(supportedLocales)
	koreanWeekdays   = [...]string{"일", "월", "화", "수", "목", "금", "토"}
)

// FormatLocalizedDate renders a date key with its weekday. Unknown locales
// render in English.
func FormatLocalizedDate(key, locale string) (string, error) {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidDate, key)
	}

	tag, _ := language.MatchStrings(localeMatcher, locale)
	base, _ := tag.Base()
	koreanBase, _ := language.Korean.Base()

	if base == koreanBase {
		return fmt.Sprintf("%d년 %d월 %d일 (%s)", t.Year(), int(t.Month()), t.Day(), koreanWeekdays[t.Weekday()]), nil
	}
	return t.Format("Monday, January 2, 2006"), nil
}
