package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-reservation/internal/availability"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/utils"
)

type DiscoveryHandler struct {
	Availability *availability.Engine
	Clock        utils.Clock
	Logger       *logger.Logger
}

func (h *DiscoveryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/discovery/instant", h.Instant)
	r.Get("/discovery/scheduled", h.Scheduled)
	r.Get("/dates/{date}/label", h.DateLabel)
}

func (h *DiscoveryHandler) Instant(w http.ResponseWriter, r *http.Request) {
	venues, err := h.Availability.InstantVenues(r.Context())
	if err != nil {
		writeError(w, h.Logger, "InstantDiscovery", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Restaurants bookable now", venues)
}

func (h *DiscoveryHandler) Scheduled(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = utils.Today(h.Clock)
	}
	venues, err := h.Availability.VenuesForDate(r.Context(), date)
	if err != nil {
		writeError(w, h.Logger, "ScheduledDiscovery", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Restaurants bookable on "+date, venues)
}

func (h *DiscoveryHandler) DateLabel(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = r.Header.Get("Accept-Language")
	}
	label, err := utils.FormatLocalizedDate(date, locale)
	if err != nil {
		writeError(w, h.Logger, "DateLabel", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Date label", map[string]string{
		"date":  date,
		"label": label,
	})
}
