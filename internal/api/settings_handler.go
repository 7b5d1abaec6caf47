package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-reservation/internal/auth"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/settings"
)

type SettingsHandler struct {
	Settings *settings.SettingsService
	Logger   *logger.Logger
}

func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/settings/venue/{venueId}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/date/{date}/available", h.IsDateAvailable)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleOwner))
			r.Patch("/", h.Update)
			r.Post("/toggle-date", h.ToggleDate)
			r.Post("/daily-capacity", h.SetDailyCapacity)
		})
	})
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "GetSettings", err)
		return
	}
	st, err := h.Settings.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "GetSettings", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Settings", st)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "UpdateSettings", err)
		return
	}
	if _, err := requireVenueOwner(r, id); err != nil {
		writeError(w, h.Logger, "UpdateSettings", err)
		return
	}
	var patch models.SettingsPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, h.Logger, "UpdateSettings", err)
		return
	}
	st, err := h.Settings.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.Logger, "UpdateSettings", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Settings updated", st)
}

func (h *SettingsHandler) ToggleDate(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "ToggleDate", err)
		return
	}
	if _, err := requireVenueOwner(r, id); err != nil {
		writeError(w, h.Logger, "ToggleDate", err)
		return
	}
	var req struct {
		Date string `json:"date"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.Logger, "ToggleDate", err)
		return
	}
	st, err := h.Settings.ToggleDateAvailability(r.Context(), id, req.Date)
	if err != nil {
		writeError(w, h.Logger, "ToggleDate", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Date availability toggled", st)
}

func (h *SettingsHandler) SetDailyCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "SetDailyCapacity", err)
		return
	}
	if _, err := requireVenueOwner(r, id); err != nil {
		writeError(w, h.Logger, "SetDailyCapacity", err)
		return
	}
	var req struct {
		Date     string `json:"date"`
		Capacity int    `json:"capacity"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.Logger, "SetDailyCapacity", err)
		return
	}
	st, err := h.Settings.SetDailyCapacity(r.Context(), id, req.Date, req.Capacity)
	if err != nil {
		writeError(w, h.Logger, "SetDailyCapacity", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Daily capacity set", st)
}

func (h *SettingsHandler) IsDateAvailable(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "IsDateAvailable", err)
		return
	}
	date := chi.URLParam(r, "date")
	ok, err := h.Settings.IsDateAvailable(r.Context(), id, date)
	if err != nil {
		writeError(w, h.Logger, "IsDateAvailable", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Date availability", map[string]interface{}{
		"restaurantId": id,
		"date":         date,
		"available":    ok,
	})
}
