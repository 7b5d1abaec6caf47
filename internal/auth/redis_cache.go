package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-reservation/internal/logger"
)

// InitializeRedis connects the session cache and checks it accepts writes.
func InitializeRedis(addr, password string, db int, customLogger *logger.Logger) (*redis.Client, error) {
	if customLogger == nil {
		customLogger = logger.NewNopLogger()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		customLogger.Error("AUTH", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		return nil, err
	}

	customLogger.Info("AUTH", fmt.Sprintf("Successfully connected to Redis at %s for sessions", addr))

	testKey := sessionKeyPrefix + "healthcheck"
	if err := redisClient.Set(ctx, testKey, "ok", 5*time.Second).Err(); err != nil {
		customLogger.Error("AUTH", fmt.Sprintf("Failed to write test value to Redis: %v", err))
		return nil, err
	}

	customLogger.Info("AUTH", "Redis session store is ready for use")
	return redisClient, nil
}
