package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader messageReader
	Logger *logger.Logger
}

// NewConsumer joins groupID and reads every topic in topics.
func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.NewNopLogger()
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
	})
	return &Consumer{reader: reader, Logger: log}
}

// Start reads until ctx is cancelled. Malformed messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(evt models.ReservationEvent)) error {
	c.Logger.Info("EVENTS", "Kafka consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.Logger.Info("EVENTS", "Kafka consumer stopped")
				return nil
			}
			c.Logger.Error("EVENTS", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		var evt models.ReservationEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			c.Logger.Warn("EVENTS", fmt.Sprintf("Failed to unmarshal message on %s: %v", msg.Topic, err))
			continue
		}

		c.Logger.LogEvent("RECEIVED", msg.Topic, fmt.Sprintf("venue=%d date=%s", evt.VenueID, evt.Date))
		handler(evt)
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
