package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs chan kafka.Message
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-f.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) Close() error { return nil }

func TestProducerRoutesByEventType(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Logger: logger.NewNopLogger()}

	evt := models.ReservationEvent{
		Type:        models.EventReservationConfirmed,
		VenueID:     7,
		Reservation: &models.Reservation{ID: "r-1", VenueID: 7, Date: "2025-05-30"},
		Date:        "2025-05-30",
		OccurredAt:  time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishReservationEvent(context.Background(), evt))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "reservation.confirmed", w.msgs[0].Topic)
	assert.Equal(t, "7", string(w.msgs[0].Key))

	var decoded models.ReservationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "r-1", decoded.Reservation.ID)
}

func TestProducerWriteFailureIsUnavailable(t *testing.T) {
	p := &Producer{Writer: &fakeWriter{err: errors.New("broker down")}, Logger: logger.NewNopLogger()}
	err := p.PublishReservationEvent(context.Background(), models.ReservationEvent{Type: models.EventReservationCreated})
	assert.ErrorIs(t, err, models.ErrUnavailable)
}

func TestConsumerSkipsMalformedAndStopsOnCancel(t *testing.T) {
	r := &fakeReader{msgs: make(chan kafka.Message, 2)}
	c := &Consumer{reader: r, Logger: logger.NewNopLogger()}

	good, err := json.Marshal(models.ReservationEvent{Type: models.EventReservationCreated, VenueID: 3})
	require.NoError(t, err)
	r.msgs <- kafka.Message{Topic: "reservation.created", Value: []byte("{not json")}
	r.msgs <- kafka.Message{Topic: "reservation.created", Value: good}

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan models.ReservationEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(evt models.ReservationEvent) { got <- evt })
	}()

	select {
	case evt := <-got:
		assert.Equal(t, int64(3), evt.VenueID)
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestEnsureTopicsExistRequiresBrokers(t *testing.T) {
	assert.Error(t, EnsureTopicsExist(context.Background(), nil, []string{"x"}, nil))
}
