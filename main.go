package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ms-reservation/internal/app"
	"ms-reservation/internal/auth"
	"ms-reservation/internal/config"
	"ms-reservation/internal/database"
	"ms-reservation/internal/events"
	"ms-reservation/internal/kafka"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/telemetry"
	"ms-reservation/internal/utils"
)

func sessionStore(cfg *config.Config, clock utils.Clock, logger *logger.Logger) (auth.SessionStore, *redis.Client) {
	if cfg.Session.Store != "redis" {
		logger.Info("SESSION", "Using in-memory session store")
		return auth.NewMemorySessionStore(clock), nil
	}
	client, err := auth.InitializeRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	logger.Info("SESSION", fmt.Sprintf("Sessions stored in Redis at %s (DB: %d)", cfg.Redis.Addr, cfg.Redis.DB))
	return auth.NewRedisSessionStore(client, clock), client
}

// eventBroker returns the outbound publisher and a close func for it.
func eventBroker(ctx context.Context, cfg *config.Config, logger *logger.Logger) (events.Publisher, func() error) {
	switch cfg.Events.Broker {
	case "kafka":
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Events.Brokers))
		if err := kafka.EnsureTopicsExist(ctx, cfg.Events.Brokers, models.ReservationEventTopics, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		producer := kafka.NewProducer(cfg.Events.Brokers, logger)
		return producer, producer.Close
	case "rabbitmq":
		publisher, err := events.NewRabbitPublisher(cfg.Events.RabbitMQURL, logger)
		if err != nil {
			logger.Fatal("RABBITMQ", fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
		}
		return publisher, publisher.Close
	default:
		logger.Info("EVENTS", "No event broker configured, events go to the live feed only")
		return nil, func() error { return nil }
	}
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Reservation Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	clock := utils.NewRealClock(cfg.Location())

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	shutdownTracing := telemetry.Setup(cfg.Telemetry, logger)

	logger.Info("APP", "Opening reservation store")
	st, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer st.Close()

	if cfg.Database.SeedData && (cfg.Database.Driver == "memory" || cfg.Database.Driver == "sqlite" || cfg.Database.Driver == "") {
		if _, err := database.Seed(ctx, st, clock, cfg.Booking.SignupHorizonDays, logger); err != nil {
			logger.Error("SEED", fmt.Sprintf("Failed to seed demo venues: %v", err))
		}
	}

	sessions, redisClient := sessionStore(cfg, clock, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	broker, closeBroker := eventBroker(ctx, cfg, logger)
	defer closeBroker()

	a := app.New(cfg, app.Deps{
		Store:    st,
		Sessions: sessions,
		Broker:   broker,
		Clock:    clock,
		Logger:   logger,
	})

	go a.Scheduler.Start(ctx)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      otelhttp.NewHandler(a.Router, cfg.Telemetry.ServiceName),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Reservation Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Reservation Service shutdown complete")
	}
	if err := shutdownTracing(ctxShutdown); err != nil {
		logger.Warn("TELEMETRY", fmt.Sprintf("Tracer shutdown failed: %v", err))
	}
}
