// Command seed loads the demo venues into the configured store. For SQL
// drivers it runs the schema migrations first.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/joho/godotenv"

	"ms-reservation/internal/config"
	"ms-reservation/internal/database"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/utils"
)

func main() {
	days := flag.Int("days", 0, "days of default time slots per venue (defaults to SIGNUP_HORIZON_DAYS)")
	reset := flag.Bool("reset", false, "roll back all SQL migrations before seeding")
	flag.Parse()

	_ = godotenv.Load()
	logger := logger.NewLogger()
	defer logger.Close()

	cfg := config.Load()
	cfg.Database.AutoMigrate = true
	// The SQL seed migration would insert the same venues again.
	cfg.Database.SeedData = false
	if *days <= 0 {
		*days = cfg.Booking.SignupHorizonDays
	}

	ctx := context.Background()
	if *reset {
		if err := database.Reset(ctx, cfg.Database, logger); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Reset failed: %v", err))
		}
	}

	st, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer st.Close()

	n, err := database.Seed(ctx, st, utils.NewRealClock(cfg.Location()), *days, logger)
	if err != nil {
		logger.Fatal("SEED", fmt.Sprintf("Seeding failed: %v", err))
	}
	logger.Info("SEED", fmt.Sprintf("Done, %d venues inserted", n))
}
