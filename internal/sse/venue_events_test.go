package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-reservation/internal/models"
)

func receive(t *testing.T, ch chan models.ReservationEvent) models.ReservationEvent {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return models.ReservationEvent{}
}

func TestEmitRoutesByVenue(t *testing.T) {
	e := NewVenueEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := e.Subscribe(ctx, 1)
	b := e.Subscribe(ctx, 2)

	require.NoError(t, e.PublishReservationEvent(ctx, models.ReservationEvent{Type: models.EventReservationCreated, VenueID: 1}))
	assert.Equal(t, models.EventReservationCreated, receive(t, a).Type)
	assert.Len(t, b, 0)

	e.Emit(models.ReservationEvent{Type: models.EventDayRollover, Date: "2025-05-31"})
	assert.Equal(t, models.EventDayRollover, receive(t, a).Type)
	assert.Equal(t, models.EventDayRollover, receive(t, b).Type)
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	e := NewVenueEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := e.Subscribe(ctx, 1)
	for i := 0; i < 25; i++ {
		e.Emit(models.ReservationEvent{Type: models.EventReservationUpdated, VenueID: 1})
	}
	assert.Len(t, ch, 10)
}

func TestUnsubscribeOnContextDone(t *testing.T) {
	e := NewVenueEventEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.Subscribe(ctx, 4)
	assert.Equal(t, 1, e.ClientCount(4))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Eventually(t, func() bool { return e.ClientCount(4) == 0 }, time.Second, 10*time.Millisecond)
}
