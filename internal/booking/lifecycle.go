package booking

import (
	"time"

	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
)

// Rejected and cancelled are terminal; deletion is all that is left for them.
var transitionMap = map[models.ReservationStatus]map[models.ReservationStatus]bool{
	models.StatusPending: {
		models.StatusConfirmed: true,
		models.StatusRejected:  true,
		models.StatusCancelled: true,
	},
	models.StatusConfirmed: {
		models.StatusCancelled: true,
	},
	models.StatusRejected:  {},
	models.StatusCancelled: {},
}

func CanTransition(from, to models.ReservationStatus) bool {
	next, ok := transitionMap[from]
	if !ok {
		return false
	}
	return next[to]
}

func IsTerminal(s models.ReservationStatus) bool {
	return len(transitionMap[s]) == 0
}

// Deletable reports whether a reservation may be removed from the store.
func Deletable(s models.ReservationStatus) bool {
	return s == models.StatusCancelled || s == models.StatusRejected
}

type Bucket string

const (
	BucketUpcoming Bucket = "upcoming"
	BucketPast     Bucket = "past"
)

// Classify places r relative to now's local wall clock. Cancelled is always
// past. Everything else, rejected included, goes by date, then by HH:MM on
// the same day.
func Classify(r models.Reservation, now time.Time) Bucket {
	if r.Status == models.StatusCancelled {
		return BucketPast
	}
	today := utils.FormatDateKey(now)
	switch {
	case r.Date > today:
		return BucketUpcoming
	case r.Date < today:
		return BucketPast
	case r.Time >= utils.TimeOfDay(now):
		return BucketUpcoming
	default:
		return BucketPast
	}
}

// Partition splits list into upcoming and past, keeping input order.
func Partition(list []models.Reservation, now time.Time) models.ReservationBuckets {
	out := models.ReservationBuckets{Upcoming: []models.Reservation{}, Past: []models.Reservation{}}
	for _, r := range list {
		if Classify(r, now) == BucketUpcoming {
			out.Upcoming = append(out.Upcoming, r)
		} else {
			out.Past = append(out.Past, r)
		}
	}
	return out
}
