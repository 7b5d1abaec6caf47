package models

import "time"

type ReservationEventType string

const (
	EventReservationCreated   ReservationEventType = "reservation.created"
	EventReservationUpdated   ReservationEventType = "reservation.updated"
	EventReservationConfirmed ReservationEventType = "reservation.confirmed"
	EventReservationRejected  ReservationEventType = "reservation.rejected"
	EventReservationCancelled ReservationEventType = "reservation.cancelled"
	EventReservationDeleted   ReservationEventType = "reservation.deleted"
	EventDayRollover          ReservationEventType = "day.rollover"
)

// ReservationEventTopics lists every topic the service produces to.
var ReservationEventTopics = []string{
	string(EventReservationCreated),
	string(EventReservationUpdated),
	string(EventReservationConfirmed),
	string(EventReservationRejected),
	string(EventReservationCancelled),
	string(EventReservationDeleted),
}

type ReservationEvent struct {
	Type        ReservationEventType `json:"type"`
	VenueID     int64                `json:"restaurantId"`
	Reservation *Reservation         `json:"reservation,omitempty"`
	Date        string               `json:"date,omitempty"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

// EventForStatus maps a lifecycle target status to its event type.
func EventForStatus(s ReservationStatus) ReservationEventType {
	switch s {
	case StatusConfirmed:
		return EventReservationConfirmed
	case StatusRejected:
		return EventReservationRejected
	case StatusCancelled:
		return EventReservationCancelled
	default:
		return EventReservationUpdated
	}
}
