// Package app assembles the reservation services and HTTP router from a
// store and configuration.
package app

import (
	"github.com/go-chi/chi/v5"

	"ms-reservation/internal/api"
	"ms-reservation/internal/auth"
	"ms-reservation/internal/availability"
	"ms-reservation/internal/booking"
	"ms-reservation/internal/config"
	"ms-reservation/internal/events"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/qr"
	"ms-reservation/internal/scheduler"
	"ms-reservation/internal/settings"
	"ms-reservation/internal/sse"
	"ms-reservation/internal/store"
	"ms-reservation/internal/utils"
	"ms-reservation/internal/venue"
)

type App struct {
	Store        store.Store
	Venues       *venue.VenueService
	Settings     *settings.SettingsService
	Availability *availability.Engine
	Bookings     *booking.BookingService
	Auth         *auth.AuthService
	LiveFeed     *sse.VenueEventEmitter
	Scheduler    *scheduler.Scheduler
	Router       chi.Router
}

// Deps carries the pieces chosen at startup. Broker may be nil.
type Deps struct {
	Store    store.Store
	Sessions auth.SessionStore
	Broker   events.Publisher
	Clock    utils.Clock
	Logger   *logger.Logger
}

func New(cfg *config.Config, d Deps) *App {
	log := d.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	clock := d.Clock
	if clock == nil {
		clock = utils.NewRealClock(cfg.Location())
	}
	sessions := d.Sessions
	if sessions == nil {
		sessions = auth.NewMemorySessionStore(clock)
	}

	liveFeed := sse.NewVenueEventEmitter()
	publisher := events.Fanout{liveFeed}
	if d.Broker != nil {
		publisher = append(publisher, d.Broker)
	}

	venues := venue.NewVenueService(d.Store, log, clock)
	settingsSvc := settings.NewSettingsService(d.Store, log, clock, cfg.Booking.SettingsHorizonDays)
	engine := availability.NewEngine(d.Store, settingsSvc, clock, log)
	bookings := booking.NewBookingService(d.Store, engine, publisher, log, clock, booking.Options{
		ConfirmationPrefix:       cfg.Booking.ConfirmationPrefix,
		EnforceCapacityOnConfirm: cfg.Booking.EnforceCapacityOnConfirm,
	})
	tokens := auth.NewTokenIssuer(cfg.Session.JWTSecret, cfg.Session.TTL, clock)
	authSvc := auth.NewAuthService(d.Store, sessions, tokens, log, clock, auth.Options{
		SignupHorizonDays:    cfg.Booking.SignupHorizonDays,
		DefaultVenueCapacity: cfg.Booking.DefaultVenueCapacity,
	})

	handlers := api.Handlers{
		Auth: api.NewAuthHandler(authSvc, log),
		Venues: &api.VenueHandler{
			Venues:       venues,
			Availability: engine,
			Bookings:     bookings,
			LiveFeed:     api.NewSSEHandler(log, liveFeed),
			Clock:        clock,
			Logger:       log,
		},
		Reservations: &api.ReservationHandler{
			Bookings: bookings,
			QR:       qr.NewQRGenerator(cfg.QRSecret),
			Logger:   log,
		},
		Settings:  &api.SettingsHandler{Settings: settingsSvc, Logger: log},
		Discovery: &api.DiscoveryHandler{Availability: engine, Clock: clock, Logger: log},
	}

	return &App{
		Store:        d.Store,
		Venues:       venues,
		Settings:     settingsSvc,
		Availability: engine,
		Bookings:     bookings,
		Auth:         authSvc,
		LiveFeed:     liveFeed,
		Scheduler:    scheduler.New(liveFeed, clock, log),
		Router:       api.NewRouter(handlers, authSvc, log),
	}
}
