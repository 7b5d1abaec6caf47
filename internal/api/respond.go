package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-reservation/internal/auth"
	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/utils"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, utils.SuccessResponse(message, data))
}

// writeError logs err under op and writes the mapped status. Internal
// errors are not echoed to the client.
func writeError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("API", fmt.Sprintf("%s: %v", op, err))
		msg = "internal error"
	} else {
		log.Warn("API", fmt.Sprintf("%s: %v", op, err))
	}
	writeJSON(w, status, utils.ErrorResponse(status, msg))
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return models.Validationf("invalid request body: %v", err)
	}
	return nil
}

func venueIDParam(r *http.Request) (int64, error) {
	return parseVenueID(chi.URLParam(r, "venueId"))
}

func parseVenueID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.Validationf("invalid restaurant id %q", raw)
	}
	return id, nil
}

func currentUser(r *http.Request) (*models.User, error) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		return nil, fmt.Errorf("%w: authentication required", models.ErrUnauthorized)
	}
	return u, nil
}

// ownsVenue reports whether u is the owner account attached to venueID.
func ownsVenue(u *models.User, venueID int64) bool {
	return u != nil && u.Role == models.RoleOwner && u.VenueID != nil && *u.VenueID == venueID
}

func requireVenueOwner(r *http.Request, venueID int64) (*models.User, error) {
	u, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	if !ownsVenue(u, venueID) {
		return nil, fmt.Errorf("%w: restaurant %d is not managed by this account", models.ErrForbidden, venueID)
	}
	return u, nil
}
