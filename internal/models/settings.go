package models

import "sort"

// VenueSettings holds per-venue overrides. A date listed in UnavailableDates
// is closed regardless of DailyCapacity.
type VenueSettings struct {
	VenueID            int64               `json:"restaurantId"`
	UnavailableDates   []string            `json:"unavailableDates"`
	DailyCapacity      map[string]int      `json:"dailyCapacity"`
	AvailableTimeSlots map[string][]string `json:"availableTimeSlots"`
}

// SettingsPatch replaces each non-nil field wholesale.
type SettingsPatch struct {
	UnavailableDates   *[]string            `json:"unavailableDates,omitempty"`
	DailyCapacity      *map[string]int      `json:"dailyCapacity,omitempty"`
	AvailableTimeSlots *map[string][]string `json:"availableTimeSlots,omitempty"`
}

func (p SettingsPatch) IsEmpty() bool {
	return p.UnavailableDates == nil && p.DailyCapacity == nil && p.AvailableTimeSlots == nil
}

func EmptySettings(venueID int64) *VenueSettings {
	return &VenueSettings{
		VenueID:            venueID,
		UnavailableDates:   []string{},
		DailyCapacity:      map[string]int{},
		AvailableTimeSlots: map[string][]string{},
	}
}

func (s *VenueSettings) IsUnavailable(date string) bool {
	for _, d := range s.UnavailableDates {
		if d == date {
			return true
		}
	}
	return false
}

// CapacityFor returns the per-date override, if any.
func (s *VenueSettings) CapacityFor(date string) (int, bool) {
	c, ok := s.DailyCapacity[date]
	return c, ok
}

// Clone returns a deep copy.
func (s *VenueSettings) Clone() *VenueSettings {
	out := EmptySettings(s.VenueID)
	out.UnavailableDates = append(out.UnavailableDates, s.UnavailableDates...)
	for k, v := range s.DailyCapacity {
		out.DailyCapacity[k] = v
	}
	for k, v := range s.AvailableTimeSlots {
		out.AvailableTimeSlots[k] = append([]string{}, v...)
	}
	return out
}

// Normalize sorts and de-duplicates UnavailableDates and fills nil maps.
func (s *VenueSettings) Normalize() {
	seen := make(map[string]bool, len(s.UnavailableDates))
	dates := make([]string, 0, len(s.UnavailableDates))
	for _, d := range s.UnavailableDates {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)
	s.UnavailableDates = dates
	if s.DailyCapacity == nil {
		s.DailyCapacity = map[string]int{}
	}
	if s.AvailableTimeSlots == nil {
		s.AvailableTimeSlots = map[string][]string{}
	}
}
