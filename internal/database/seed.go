package database

import (
	"context"
	"errors"
	"fmt"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/settings"
	"ms-reservation/internal/store"
	"ms-reservation/internal/utils"
)

// DemoVenues are loaded by the seed command and by DB_SEED_DATA on the
// in-memory store.
func DemoVenues() []models.Venue {
	return []models.Venue{
		{Name: "Hanok Table", Cuisine: "Korean", Rating: 4.7, Reviews: 312, Address: "12 Bukchon-ro, Jongno-gu, Seoul", Hours: "11:00 - 22:00", PriceRange: "$$", Capacity: 50, Image: "https://images.unsplash.com/photo-1517248135467-4c7edcad34c4?w=800", Phone: "02-735-1234", Description: "Seasonal Korean home cooking in a restored hanok."},
		{Name: "Trattoria Sole", Cuisine: "Italian", Rating: 4.5, Reviews: 198, Address: "45 Itaewon-ro, Yongsan-gu, Seoul", Hours: "12:00 - 23:00", PriceRange: "$$$", Capacity: 40, Image: "https://images.unsplash.com/photo-1555396273-367ea4eb4db5?w=800", Phone: "02-790-5678", Description: "Wood-fired pizza and fresh pasta."},
		{Name: "Sushi Hana", Cuisine: "Japanese", Rating: 4.8, Reviews: 421, Address: "8 Apgujeong-ro, Gangnam-gu, Seoul", Hours: "17:00 - 01:00", PriceRange: "$$$$", Capacity: 20, Image: "https://images.unsplash.com/photo-1579871494447-9811cf80d66c?w=800", Phone: "02-512-9090", Description: "Omakase counter open late."},
	}
}

// Seed inserts the demo venues with days of default slots each. It does
// nothing when the store already has venues.
func Seed(ctx context.Context, s store.Store, clock utils.Clock, days int, log *logger.Logger) (int, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	existing, err := s.ListVenues(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		log.Info("SEED", fmt.Sprintf("Store already has %d venues, skipping seed", len(existing)))
		return 0, nil
	}

	venues := DemoVenues()
	err = s.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		for i := range venues {
			venues[i].CreatedAt = clock.Now()
			if err := tx.CreateVenue(ctx, &venues[i]); err != nil {
				return fmt.Errorf("failed to seed %s: %w", venues[i].Name, err)
			}
			st := settings.NewProvisionedSettings(venues[i].ID, days, clock)
			if err := tx.CreateSettings(ctx, st); err != nil && !errors.Is(err, models.ErrConflict) {
				return fmt.Errorf("failed to seed settings for %s: %w", venues[i].Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Info("SEED", fmt.Sprintf("Seeded %d venues", len(venues)))
	return len(venues), nil
}
