package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
)

const ReservationExchange = "reservations"

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher sends events to a durable topic exchange using the event
// type as routing key.
type RabbitPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel amqpChannel
	Logger  *logger.Logger
}

func NewRabbitPublisher(url string, log *logger.Logger) (*RabbitPublisher, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	p, err := newRabbitPublisher(ch, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	log.Info("EVENTS", fmt.Sprintf("Connected to RabbitMQ exchange %s", ReservationExchange))
	return p, nil
}

func newRabbitPublisher(ch amqpChannel, log *logger.Logger) (*RabbitPublisher, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if err := ch.ExchangeDeclare(
		ReservationExchange, // name
		"topic",             // kind
		true,                // durable
		false,               // autoDelete
		false,               // internal
		false,               // noWait
		nil,                 // args
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("rabbitmq: exchange declare failed: %w", err)
	}
	return &RabbitPublisher{channel: ch, Logger: log}, nil
}

func (p *RabbitPublisher) PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.OccurredAt.UTC(),
		Type:         string(evt.Type),
		Headers:      amqp.Table{"restaurantId": strconv.FormatInt(evt.VenueID, 10)},
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, ReservationExchange, string(evt.Type), false, false, pub); err != nil {
		return fmt.Errorf("%w: rabbitmq publish failed: %v", models.ErrUnavailable, err)
	}
	p.Logger.LogEvent("PUBLISH", string(evt.Type), "sent to "+ReservationExchange)
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.channel.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
