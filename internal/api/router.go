package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ms-reservation/internal/auth"
	"ms-reservation/internal/logger"
)

type Handlers struct {
	Auth         *AuthHandler
	Venues       *VenueHandler
	Reservations *ReservationHandler
	Settings     *SettingsHandler
	Discovery    *DiscoveryHandler
}

// NewRouter mounts every handler under /api. Identity is resolved for all
// routes; individual routes decide whether it is required.
func NewRouter(h Handlers, authn auth.Authenticator, log *logger.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, http.StatusOK, "ok", nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(authn))

		h.Auth.RegisterRoutes(r)
		h.Venues.RegisterRoutes(r)
		h.Reservations.RegisterRoutes(r)
		h.Settings.RegisterRoutes(r)
		h.Discovery.RegisterRoutes(r)
	})

	log.Info("ROUTER", "Reservation API routes registered under /api")
	return r
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", ww.Status()), time.Since(start).String())
		})
	}
}
