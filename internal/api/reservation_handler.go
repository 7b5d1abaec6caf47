package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-reservation/internal/auth"
	"ms-reservation/internal/booking"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/qr"
)

type ReservationHandler struct {
	Bookings *booking.BookingService
	QR       *qr.QRGenerator
	Logger   *logger.Logger
}

func (h *ReservationHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/me/reservations", h.MyReservations)

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/by-code/{code}", h.GetByCode)
			r.With(auth.RequireRole(models.RoleOwner)).Post("/verify-pass", h.VerifyPass)

			r.Route("/{reservationId}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Patch("/", h.Update)
				r.Delete("/", h.Delete)
				r.Get("/qr", h.QRCode)
				r.Post("/cancel", h.Cancel)
				r.With(auth.RequireRole(models.RoleOwner)).Post("/confirm", h.Confirm)
				r.With(auth.RequireRole(models.RoleOwner)).Post("/reject", h.Reject)
			})
		})
	})
}

// load fetches the reservation and checks the caller is its guest or the
// owner of its venue.
func (h *ReservationHandler) load(ctx context.Context, r *http.Request, id string) (*models.Reservation, *models.User, error) {
	u, err := currentUser(r)
	if err != nil {
		return nil, nil, err
	}
	res, err := h.Bookings.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if res.UserID != u.ID && !ownsVenue(u, res.VenueID) {
		return nil, nil, fmt.Errorf("%w: reservation %s belongs to another account", models.ErrForbidden, id)
	}
	return res, u, nil
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		writeError(w, h.Logger, "CreateReservation", err)
		return
	}
	var in models.ReservationInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, h.Logger, "CreateReservation", err)
		return
	}
	in.UserID = u.ID
	if in.GuestName == "" {
		in.GuestName = u.Name
	}
	if in.GuestPhone == "" {
		in.GuestPhone = u.Phone
	}

	res, err := h.Bookings.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, "CreateReservation", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Reservation created", res)
}

// List serves ?venueId= (owner, optional from/to range) or the caller's own
// reservations.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		writeError(w, h.Logger, "ListReservations", err)
		return
	}
	q := r.URL.Query()
	ctx := r.Context()

	var list []models.Reservation
	switch {
	case q.Get("venueId") != "":
		venueID, err := parseVenueID(q.Get("venueId"))
		if err != nil {
			writeError(w, h.Logger, "ListReservations", err)
			return
		}
		if !ownsVenue(u, venueID) {
			writeError(w, h.Logger, "ListReservations", fmt.Errorf("%w: restaurant %d is not managed by this account", models.ErrForbidden, venueID))
			return
		}
		if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
			list, err = h.Bookings.ListByDateRange(ctx, venueID, from, to)
		} else {
			list, err = h.Bookings.ListByVenue(ctx, venueID)
		}
		if err != nil {
			writeError(w, h.Logger, "ListReservations", err)
			return
		}
	default:
		if uid := q.Get("userId"); uid != "" && uid != u.ID {
			writeError(w, h.Logger, "ListReservations", fmt.Errorf("%w: cannot list another user's reservations", models.ErrForbidden))
			return
		}
		list, err = h.Bookings.ListByUser(ctx, u.ID)
		if err != nil {
			writeError(w, h.Logger, "ListReservations", err)
			return
		}
	}
	if list == nil {
		list = []models.Reservation{}
	}
	writeSuccess(w, http.StatusOK, "Reservations", list)
}

func (h *ReservationHandler) MyReservations(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		writeError(w, h.Logger, "MyReservations", err)
		return
	}
	buckets, err := h.Bookings.UserBuckets(r.Context(), u.ID)
	if err != nil {
		writeError(w, h.Logger, "MyReservations", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Reservations", buckets)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, _, err := h.load(r.Context(), r, chi.URLParam(r, "reservationId"))
	if err != nil {
		writeError(w, h.Logger, "GetReservation", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Reservation", res)
}

func (h *ReservationHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		writeError(w, h.Logger, "GetByCode", err)
		return
	}
	res, err := h.Bookings.GetByConfirmationCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.Logger, "GetByCode", err)
		return
	}
	if res.UserID != u.ID && !ownsVenue(u, res.VenueID) {
		writeError(w, h.Logger, "GetByCode", fmt.Errorf("%w: reservation belongs to another account", models.ErrForbidden))
		return
	}
	writeSuccess(w, http.StatusOK, "Reservation", res)
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reservationId")
	if _, _, err := h.load(r.Context(), r, id); err != nil {
		writeError(w, h.Logger, "UpdateReservation", err)
		return
	}
	var patch models.ReservationPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, h.Logger, "UpdateReservation", err)
		return
	}
	res, err := h.Bookings.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.Logger, "UpdateReservation", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Reservation updated", res)
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reservationId")
	if _, _, err := h.load(r.Context(), r, id); err != nil {
		writeError(w, h.Logger, "DeleteReservation", err)
		return
	}
	if err := h.Bookings.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, "DeleteReservation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "reservationId")
	if _, _, err := h.load(r.Context(), r, id); err != nil {
		writeError(w, h.Logger, "CancelReservation", err)
		return
	}
	res, err := h.Bookings.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "CancelReservation", err)
		return
	}
	writeSuccess(w, http.StatusOK, "Reservation cancelled", res)
}

func (h *ReservationHandler) ownerTransition(w http.ResponseWriter, r *http.Request, op string, apply func(context.Context, string) (*models.Reservation, error)) {
	id := chi.URLParam(r, "reservationId")
	res, u, err := h.load(r.Context(), r, id)
	if err != nil {
		writeError(w, h.Logger, op, err)
		return
	}
	if !ownsVenue(u, res.VenueID) {
		writeError(w, h.Logger, op, fmt.Errorf("%w: only the restaurant can %s", models.ErrForbidden, op))
		return
	}
	updated, err := apply(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, op, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Reservation "+string(updated.Status), updated)
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.ownerTransition(w, r, "confirm", h.Bookings.Confirm)
}

func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.ownerTransition(w, r, "reject", h.Bookings.Reject)
}

// QRCode returns the encrypted pass as a PNG.
func (h *ReservationHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	res, _, err := h.load(r.Context(), r, chi.URLParam(r, "reservationId"))
	if err != nil {
		writeError(w, h.Logger, "ReservationQR", err)
		return
	}
	png, err := h.QR.GenerateEncryptedQR(*res)
	if err != nil {
		writeError(w, h.Logger, "ReservationQR", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", res.ConfirmationNumber+".png"))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

type verifyPassRequest struct {
	Pass string `json:"pass"`
}

type verifyPassResponse struct {
	Reservation *models.Reservation `json:"reservation"`
	Valid       bool                `json:"valid"`
}

// VerifyPass decodes a scanned QR payload for the owner of its venue. The
// pass is valid while the stored reservation is confirmed and still carries
// the same confirmation number.
func (h *ReservationHandler) VerifyPass(w http.ResponseWriter, r *http.Request) {
	var req verifyPassRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.Logger, "VerifyPass", err)
		return
	}
	pass, err := h.QR.DecryptPass(req.Pass)
	if err != nil {
		writeError(w, h.Logger, "VerifyPass", err)
		return
	}
	if _, err := requireVenueOwner(r, pass.VenueID); err != nil {
		writeError(w, h.Logger, "VerifyPass", err)
		return
	}
	res, err := h.Bookings.Get(r.Context(), pass.ReservationID)
	if err != nil {
		writeError(w, h.Logger, "VerifyPass", err)
		return
	}
	valid := res.Status == models.StatusConfirmed && res.ConfirmationNumber == pass.ConfirmationNumber
	h.Logger.LogReservation("VERIFY", res.ID, fmt.Sprintf("pass valid=%t", valid))
	writeSuccess(w, http.StatusOK, "Pass checked", verifyPassResponse{Reservation: res, Valid: valid})
}
