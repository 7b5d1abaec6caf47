package db

import "github.com/uptrace/bun"

// Settings are split into per-date rows so that a single capacity or
// closure change is one upsert.

type settingsRow struct {
	bun.BaseModel `bun:"table:venue_settings"`

	VenueID int64 `bun:"venue_id,pk"`
}

type unavailableDateRow struct {
	bun.BaseModel `bun:"table:venue_unavailable_dates"`

	VenueID int64  `bun:"venue_id,pk"`
	DateKey string `bun:"date_key,pk"`
}

type dailyCapacityRow struct {
	bun.BaseModel `bun:"table:venue_daily_capacities"`

	VenueID  int64  `bun:"venue_id,pk"`
	DateKey  string `bun:"date_key,pk"`
	Capacity int    `bun:"capacity,notnull"`
}

type timeSlotRow struct {
	bun.BaseModel `bun:"table:venue_time_slots"`

	VenueID int64  `bun:"venue_id,pk"`
	DateKey string `bun:"date_key,pk"`
	Slots   string `bun:"slots,notnull"` // comma separated HH:MM
}
