package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes each reservation event to the topic named after its type,
// keyed by venue so one venue's events stay ordered.
type Producer struct {
	Writer messageWriter
	Logger *logger.Logger
}

func NewProducer(brokers []string, log *logger.Logger) *Producer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Logger: log}
}

func (p *Producer) PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error {
	msgBytes, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", evt.Type, err)
	}

	if evt.Reservation != nil {
		p.Logger.LogEvent("PUBLISH", string(evt.Type), evt.Reservation.ID)
	} else {
		p.Logger.LogEvent("PUBLISH", string(evt.Type), fmt.Sprintf("venue=%d", evt.VenueID))
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: string(evt.Type),
		Key:   []byte(strconv.FormatInt(evt.VenueID, 10)),
		Value: msgBytes,
		Time:  evt.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("%w: kafka write to %s failed: %v", models.ErrUnavailable, evt.Type, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
