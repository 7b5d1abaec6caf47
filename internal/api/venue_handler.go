package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-reservation/internal/auth"
	"ms-reservation/internal/availability"
	"ms-reservation/internal/booking"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
	"ms-reservation/internal/venue"
)

type VenueHandler struct {
	Venues       *venue.VenueService
	Availability *availability.Engine
	Bookings     *booking.BookingService
	LiveFeed     *SSEHandler
	Clock        utils.Clock
	Logger       *logger.Logger
}

func (h *VenueHandler) RegisterRoutes(r chi.Router) {
	r.Route("/venues", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/search", h.Search)
		r.With(auth.RequireRole(models.RoleOwner)).Post("/", h.Create)

		r.Route("/{venueId}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Get("/capacity", h.Capacity)
			if h.LiveFeed != nil {
				r.With(auth.RequireRole(models.RoleOwner)).Get("/events", h.LiveFeed.Stream)
			}
			r.With(auth.RequireRole(models.RoleOwner)).Patch("/", h.Update)
			r.With(auth.RequireRole(models.RoleOwner)).Delete("/", h.Delete)
		})
	})
}

func (h *VenueHandler) List(w http.ResponseWriter, r *http.Request) {
	venues, err := h.Venues.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, "ListVenues", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Restaurants", venues)
}

func (h *VenueHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := models.VenueSearch{
		Cuisine:    q.Get("cuisine"),
		PriceRange: q.Get("priceRange"),
	}
	if raw := q.Get("minRating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, h.Logger, "SearchVenues", models.Validationf("invalid minRating %q", raw))
			return
		}
		params.MinRating = rating
	}
	venues, err := h.Venues.Search(r.Context(), params)
	if err != nil {
		writeError(w, h.Logger, "SearchVenues", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Restaurants", venues)
}

func (h *VenueHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "GetVenue", err)
		return
	}
	v, err := h.Venues.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "GetVenue", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Restaurant", v)
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var v models.Venue
	if err := decodeBody(r, &v); err != nil {
		writeError(w, h.Logger, "CreateVenue", err)
		return
	}
	v.ID = 0
	created, err := h.Venues.Create(r.Context(), v)
	if err != nil {
		writeError(w, h.Logger, "CreateVenue", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Restaurant created", created)
}

func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "UpdateVenue", err)
		return
	}
	if _, err := requireVenueOwner(r, id); err != nil {
		writeError(w, h.Logger, "UpdateVenue", err)
		return
	}
	var patch models.VenuePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, h.Logger, "UpdateVenue", err)
		return
	}
	v, err := h.Venues.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.Logger, "UpdateVenue", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Restaurant updated", v)
}

func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "DeleteVenue", err)
		return
	}
	if _, err := requireVenueOwner(r, id); err != nil {
		writeError(w, h.Logger, "DeleteVenue", err)
		return
	}
	if err := h.Venues.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, "DeleteVenue", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type capacityView struct {
	VenueID   int64  `json:"restaurantId"`
	Date      string `json:"date"`
	Capacity  int    `json:"capacity"`
	Confirmed int    `json:"confirmedPartySize"`
	Remaining int    `json:"remainingCapacity"`
}

// Capacity reports effective, confirmed and remaining seats for ?date=
// (default today).
func (h *VenueHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	id, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "Capacity", err)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = utils.Today(h.Clock)
	} else if !utils.IsValidDateKey(date) {
		writeError(w, h.Logger, "Capacity", models.ErrInvalidDate)
		return
	}

	ctx := r.Context()
	if _, err := h.Venues.Get(ctx, id); err != nil {
		writeError(w, h.Logger, "Capacity", err)
		return
	}
	capacity, err := h.Availability.EffectiveCapacity(ctx, id, date)
	if err != nil {
		writeError(w, h.Logger, "Capacity", err)
		return
	}
	confirmed, err := h.Bookings.ConfirmedPartySizeForDate(ctx, id, date)
	if err != nil {
		writeError(w, h.Logger, "Capacity", err)
		return
	}
	remaining, err := h.Availability.RemainingCapacity(ctx, id, date)
	if err != nil {
		writeError(w, h.Logger, "Capacity", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Capacity", capacityView{
		VenueID:   id,
		Date:      date,
		Capacity:  capacity,
		Confirmed: confirmed,
		Remaining: remaining,
	})
}
