package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusRejected  ReservationStatus = "rejected"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

type BookingMode string

const (
	ModeInstant   BookingMode = "instant"
	ModeScheduled BookingMode = "scheduled"
)

func (m BookingMode) Valid() bool {
	return m == ModeInstant || m == ModeScheduled
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID                 string            `bun:"id,pk" json:"id"`
	UserID             string            `bun:"user_id,notnull" json:"userId"`
	VenueID            int64             `bun:"venue_id,notnull" json:"restaurantId"`
	VenueName          string            `bun:"venue_name" json:"restaurantName"`
	Date               string            `bun:"date_key,notnull" json:"date"`
	Time               string            `bun:"time_slot,notnull" json:"time"`
	PartySize          int               `bun:"party_size,notnull" json:"partySize"`
	GuestName          string            `bun:"guest_name" json:"guestName"`
	GuestPhone         string            `bun:"guest_phone" json:"guestPhone"`
	Status             ReservationStatus `bun:"status,notnull" json:"status"`
	Mode               BookingMode       `bun:"mode,notnull" json:"mode"`
	ConfirmationNumber string            `bun:"confirmation_number,unique" json:"confirmationNumber"`
	CreatedAt          time.Time         `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt          time.Time         `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// ReservationInput is what a consumer supplies when booking.
type ReservationInput struct {
	UserID     string      `json:"userId"`
	VenueID    int64       `json:"restaurantId"`
	Date       string      `json:"date"`
	Time       string      `json:"time"`
	PartySize  int         `json:"partySize"`
	GuestName  string      `json:"guestName"`
	GuestPhone string      `json:"guestPhone"`
	Mode       BookingMode `json:"mode"`
}

// ReservationPatch edits booking details. Status is not patchable; it moves
// only through lifecycle transitions.
type ReservationPatch struct {
	Date       *string `json:"date,omitempty"`
	Time       *string `json:"time,omitempty"`
	PartySize  *int    `json:"partySize,omitempty"`
	GuestName  *string `json:"guestName,omitempty"`
	GuestPhone *string `json:"guestPhone,omitempty"`
}

func (p ReservationPatch) Apply(r *Reservation) {
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Time != nil {
		r.Time = *p.Time
	}
	if p.PartySize != nil {
		r.PartySize = *p.PartySize
	}
	if p.GuestName != nil {
		r.GuestName = *p.GuestName
	}
	if p.GuestPhone != nil {
		r.GuestPhone = *p.GuestPhone
	}
}

// ReservationFilter selects reservations; zero-valued fields do not filter.
type ReservationFilter struct {
	VenueID  int64
	UserID   string
	Date     string
	FromDate string
	ToDate   string
	Status   ReservationStatus
}

func (f ReservationFilter) Matches(r Reservation) bool {
	if f.VenueID != 0 && r.VenueID != f.VenueID {
		return false
	}
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.FromDate != "" && r.Date < f.FromDate {
		return false
	}
	if f.ToDate != "" && r.Date > f.ToDate {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// ReservationBuckets is the upcoming/past split shown to a consumer.
type ReservationBuckets struct {
	Upcoming []Reservation `json:"upcoming"`
	Past     []Reservation `json:"past"`
}
