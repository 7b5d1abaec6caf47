// Package scheduler fires the day rollover at local midnight so live
// dashboards can refresh their "today" view.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
)

type rolloverPublisher interface {
	PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error
}

type Scheduler struct {
	publisher rolloverPublisher
	clock     utils.Clock
	logger    *logger.Logger
	after     func(d time.Duration) <-chan time.Time
}

func New(publisher rolloverPublisher, clock utils.Clock, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	return &Scheduler{publisher: publisher, clock: clock, logger: log, after: time.After}
}

// NextMidnight is the start of the calendar day after now, in now's location.
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// Start blocks until ctx is done, emitting one rollover per local midnight.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("SCHEDULER", "Midnight rollover scheduler started")

	for ctx.Err() == nil {
		target := NextMidnight(s.clock.Now())
		wait := target.Sub(s.clock.Now())
		s.logger.Debug("SCHEDULER", fmt.Sprintf("Next rollover at %s (in %s)", target.Format(time.RFC3339), wait))

		select {
		case <-ctx.Done():
			continue
		case <-s.after(wait):
		}

		if ctx.Err() != nil || s.clock.Now().Before(target) {
			continue
		}
		s.tick(ctx, utils.FormatDateKey(target))
	}
	s.logger.Info("SCHEDULER", "Midnight rollover scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context, date string) {
	evt := models.ReservationEvent{
		Type:       models.EventDayRollover,
		Date:       date,
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.PublishReservationEvent(ctx, evt); err != nil {
		s.logger.Error("SCHEDULER", fmt.Sprintf("Failed to publish rollover for %s: %v", date, err))
		return
	}
	s.logger.Info("SCHEDULER", fmt.Sprintf("Day rolled over to %s", date))
}
