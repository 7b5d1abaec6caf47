package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error {
	return m.Called(ctx, evt).Error(0)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable).Error(0)
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func sampleEvent() models.ReservationEvent {
	return models.ReservationEvent{
		Type:        models.EventReservationCancelled,
		VenueID:     9,
		Reservation: &models.Reservation{ID: "r-9", VenueID: 9},
		OccurredAt:  time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestFanoutContinuesPastFailures(t *testing.T) {
	evt := sampleEvent()
	failing := new(MockPublisher)
	failing.On("PublishReservationEvent", mock.Anything, evt).Return(errors.New("down"))
	ok := new(MockPublisher)
	ok.On("PublishReservationEvent", mock.Anything, evt).Return(nil)

	err := Fanout{failing, nil, ok}.PublishReservationEvent(context.Background(), evt)
	assert.ErrorContains(t, err, "down")
	failing.AssertExpectations(t)
	ok.AssertExpectations(t)

	assert.NoError(t, Fanout{ok}.PublishReservationEvent(context.Background(), evt))
	assert.NoError(t, NopPublisher{}.PublishReservationEvent(context.Background(), evt))
}

func TestRabbitPublisherRoutesByType(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", ReservationExchange, "topic", true).Return(nil)
	ch.On("PublishWithContext", ReservationExchange, "reservation.cancelled", mock.MatchedBy(func(msg amqp.Publishing) bool {
		var evt models.ReservationEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			return false
		}
		return msg.DeliveryMode == amqp.Persistent && evt.Reservation.ID == "r-9" && msg.Headers["restaurantId"] == "9"
	})).Return(nil)

	p, err := newRabbitPublisher(ch, logger.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, p.PublishReservationEvent(context.Background(), sampleEvent()))
	ch.AssertExpectations(t)
}

func TestRabbitPublisherFailureIsUnavailable(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", ReservationExchange, "topic", true).Return(nil)
	ch.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything).Return(amqp.ErrClosed)

	p, err := newRabbitPublisher(ch, logger.NewNopLogger())
	require.NoError(t, err)
	err = p.PublishReservationEvent(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, models.ErrUnavailable)
}

func TestRabbitDeclareFailureClosesChannel(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", ReservationExchange, "topic", true).Return(errors.New("access refused"))
	ch.On("Close").Return(nil)

	_, err := newRabbitPublisher(ch, nil)
	assert.Error(t, err)
	ch.AssertCalled(t, "Close")
}
