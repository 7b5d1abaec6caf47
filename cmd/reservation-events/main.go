// Command reservation-events tails the reservation topics on Kafka and logs
// every event it sees.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ms-reservation/internal/config"
	"ms-reservation/internal/kafka"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
)

func main() {
	_ = godotenv.Load()
	logger := logger.NewLogger()
	defer logger.Close()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	topics, err := kafka.ListTopics(ctx, cfg.Events.Brokers)
	if err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Could not list topics: %v", err))
	} else {
		logger.Info("KAFKA", fmt.Sprintf("Broker has %d topics", len(topics)))
	}

	consumer := kafka.NewConsumer(cfg.Events.Brokers, models.ReservationEventTopics, cfg.Events.GroupID, logger)
	defer consumer.Close()

	logger.Info("APP", fmt.Sprintf("Consuming %v as group %s", models.ReservationEventTopics, cfg.Events.GroupID))
	err = consumer.Start(ctx, func(evt models.ReservationEvent) {
		code := ""
		if evt.Reservation != nil {
			code = evt.Reservation.ConfirmationNumber
		}
		logger.LogEvent(string(evt.Type), fmt.Sprintf("venue-%d", evt.VenueID), fmt.Sprintf("date=%s code=%s at=%s", evt.Date, code, evt.OccurredAt.Format("15:04:05")))
	})
	if err != nil {
		logger.Fatal("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
	}
	logger.Info("APP", "Consumer stopped")
}
