// Package events wires reservation change notifications to the configured
// brokers and to the in-process live feed.
package events

import (
	"context"
	"errors"
	"fmt"

	"ms-reservation/internal/models"
)

type Publisher interface {
	PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error
}

type NopPublisher struct{}

func (NopPublisher) PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error {
	return nil
}

// Fanout publishes to every target and joins their failures. One failing
// target does not stop the others.
type Fanout []Publisher

func (f Fanout) PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error {
	var errs []error
	for i, p := range f {
		if p == nil {
			continue
		}
		if err := p.PublishReservationEvent(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("publisher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
