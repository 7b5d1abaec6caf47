package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-reservation/internal/api"
	"ms-reservation/internal/app"
	"ms-reservation/internal/config"
	"ms-reservation/internal/models"
	"ms-reservation/internal/qr"
	"ms-reservation/internal/store/memory"
	"ms-reservation/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	t      *testing.T
	server *httptest.Server
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Timezone: "UTC"},
		Session: config.SessionConfig{
			TTL:       time.Hour,
			JWTSecret: "test-secret",
		},
		Booking: config.BookingConfig{
			SettingsHorizonDays:  14,
			SignupHorizonDays:    10,
			ConfirmationPrefix:   "BK",
			DefaultVenueCapacity: 50,
		},
		QRSecret: "qr-secret",
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := utils.NewFixedClock(time.Date(2025, 5, 30, 15, 0, 0, 0, time.UTC))
	a := app.New(testConfig(), app.Deps{Store: memory.New(), Clock: clock})
	srv := httptest.NewServer(a.Router)
	t.Cleanup(srv.Close)
	return &testServer{t: t, server: srv}
}

func (s *testServer) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func (s *testServer) login(loginID string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"userId": loginID, "password": "secret1"})
	require.Equal(s.t, http.StatusOK, code, env.Error)
	var resp models.LoginResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &resp))
	return resp.Token
}

// seed registers an owner with a venue and a customer, returning their tokens
// and the venue id.
func (s *testServer) seed() (ownerToken, customerToken string, venueID int64) {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/auth/signup/owner", "", map[string]interface{}{
		"userId":         "owner1",
		"email":          "owner@example.com",
		"password":       "secret1",
		"name":           "Jiho Lee",
		"restaurantName": "Hanok Table",
		"capacity":       10,
	})
	require.Equal(s.t, http.StatusCreated, code, env.Error)
	var created struct {
		Restaurant models.Venue `json:"restaurant"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &created))

	code, env = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"userId":   "minji",
		"email":    "minji@example.com",
		"password": "secret1",
		"name":     "Minji Park",
	})
	require.Equal(s.t, http.StatusCreated, code, env.Error)

	return s.login("owner1"), s.login("minji"), created.Restaurant.ID
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	code, env := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	owner, customer, venueID := s.seed()

	code, _ := s.do(http.MethodPost, "/api/reservations", "", map[string]interface{}{"restaurantId": venueID})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := s.do(http.MethodPost, "/api/reservations", customer, map[string]interface{}{
		"restaurantId": venueID,
		"date":         "2025-05-31",
		"time":         "19:00",
		"partySize":    4,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	res := decode[models.Reservation](t, env)
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, "Minji Park", res.GuestName)
	assert.Regexp(t, `^BK-20250530-\d{4}$`, res.ConfirmationNumber)

	code, _ = s.do(http.MethodPost, "/api/reservations/"+res.ID+"/confirm", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPost, "/api/reservations/"+res.ID+"/confirm", owner, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, models.StatusConfirmed, decode[models.Reservation](t, env).Status)

	code, env = s.do(http.MethodPost, "/api/reservations/"+res.ID+"/reject", owner, nil)
	assert.Equal(t, http.StatusBadRequest, code, env.Error)

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/venues/%d/capacity?date=2025-05-31", venueID), "", nil)
	require.Equal(t, http.StatusOK, code)
	capacity := decode[map[string]interface{}](t, env)
	assert.EqualValues(t, 10, capacity["capacity"])
	assert.EqualValues(t, 4, capacity["confirmedPartySize"])
	assert.EqualValues(t, 6, capacity["remainingCapacity"])

	code, env = s.do(http.MethodPost, "/api/reservations", customer, map[string]interface{}{
		"restaurantId": venueID,
		"date":         "2025-05-31",
		"time":         "20:00",
		"partySize":    7,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "capacity")

	code, env = s.do(http.MethodDelete, "/api/reservations/"+res.ID, customer, nil)
	assert.Equal(t, http.StatusBadRequest, code, env.Error)

	code, env = s.do(http.MethodGet, "/api/me/reservations", customer, nil)
	require.Equal(t, http.StatusOK, code)
	buckets := decode[models.ReservationBuckets](t, env)
	assert.Len(t, buckets.Upcoming, 1)
	assert.Empty(t, buckets.Past)

	code, env = s.do(http.MethodPost, "/api/reservations/"+res.ID+"/cancel", customer, nil)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = s.do(http.MethodDelete, "/api/reservations/"+res.ID, customer, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = s.do(http.MethodGet, "/api/reservations/"+res.ID, customer, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOwnerScopedRoutes(t *testing.T) {
	s := newTestServer(t)
	owner, customer, venueID := s.seed()

	_, env := s.do(http.MethodPost, "/api/reservations", customer, map[string]interface{}{
		"restaurantId": venueID, "date": "2025-06-02", "time": "18:00", "partySize": 2,
	})
	res := decode[models.Reservation](t, env)

	code, env := s.do(http.MethodGet, fmt.Sprintf("/api/reservations?venueId=%d", venueID), owner, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Len(t, decode[[]models.Reservation](t, env), 1)

	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/reservations?venueId=%d", venueID), customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/reservations?venueId=%d", venueID+1), owner, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodGet, "/api/reservations/by-code/"+res.ConfirmationNumber, owner, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, res.ID, decode[models.Reservation](t, env).ID)

	code, _ = s.do(http.MethodPatch, fmt.Sprintf("/api/venues/%d", venueID), customer, map[string]string{"cuisine": "Korean"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodPatch, fmt.Sprintf("/api/venues/%d", venueID), owner, map[string]string{"cuisine": "Korean"})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, "Korean", decode[models.Venue](t, env).Cuisine)

	code, env = s.do(http.MethodGet, "/api/venues/search?cuisine=Korean", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]models.Venue](t, env), 1)
}

func TestSettingsAndDiscovery(t *testing.T) {
	s := newTestServer(t)
	owner, customer, venueID := s.seed()
	settingsPath := fmt.Sprintf("/api/settings/venue/%d", venueID)

	code, env := s.do(http.MethodPost, settingsPath+"/toggle-date", owner, map[string]string{"date": "2025-06-01"})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Contains(t, decode[models.VenueSettings](t, env).UnavailableDates, "2025-06-01")

	code, env = s.do(http.MethodGet, settingsPath+"/date/2025-06-01/available", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, decode[map[string]interface{}](t, env)["available"])

	code, env = s.do(http.MethodPost, "/api/reservations", customer, map[string]interface{}{
		"restaurantId": venueID, "date": "2025-06-01", "time": "18:00", "partySize": 2,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "closed")

	code, env = s.do(http.MethodPost, settingsPath+"/daily-capacity", owner, map[string]interface{}{"date": "2025-06-03", "capacity": 3})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, 3, decode[models.VenueSettings](t, env).DailyCapacity["2025-06-03"])

	code, _ = s.do(http.MethodPost, settingsPath+"/daily-capacity", customer, map[string]interface{}{"date": "2025-06-03", "capacity": 3})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodGet, "/api/discovery/scheduled?date=2025-06-01", "", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Empty(t, decode[[]json.RawMessage](t, env))

	code, env = s.do(http.MethodGet, "/api/discovery/scheduled?date=2025-06-02", "", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Len(t, decode[[]json.RawMessage](t, env), 1)

	code, env = s.do(http.MethodGet, "/api/discovery/instant", "", nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Len(t, decode[[]json.RawMessage](t, env), 1)

	code, _ = s.do(http.MethodGet, "/api/discovery/scheduled?date=06-01-2025", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	_, customer, _ := s.seed()

	code, env := s.do(http.MethodGet, "/api/auth/me", customer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "minji", decode[models.User](t, env).LoginID)

	code, _ = s.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"userId": "minji", "email": "x@example.com", "password": "secret1", "name": "X",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"userId": "minji", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/auth/logout", customer, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/auth/me", customer, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestReservationQRCode(t *testing.T) {
	s := newTestServer(t)
	_, customer, venueID := s.seed()

	_, env := s.do(http.MethodPost, "/api/reservations", customer, map[string]interface{}{
		"restaurantId": venueID, "date": "2025-06-02", "time": "18:00", "partySize": 2,
	})
	res := decode[models.Reservation](t, env)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/reservations/"+res.ID+"/qr", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+customer)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
}

func TestVerifyPass(t *testing.T) {
	s := newTestServer(t)
	owner, customer, venueID := s.seed()

	_, env := s.do(http.MethodPost, "/api/reservations", customer, map[string]interface{}{
		"restaurantId": venueID, "date": "2025-06-02", "time": "18:00", "partySize": 2,
	})
	res := decode[models.Reservation](t, env)

	pass, err := qr.NewQRGenerator(testConfig().QRSecret).EncryptPass(qr.PassFor(res))
	require.NoError(t, err)

	code, env := s.do(http.MethodPost, "/api/reservations/verify-pass", owner, map[string]string{"pass": pass})
	require.Equal(t, http.StatusOK, code, env.Error)
	var out struct {
		Valid bool `json:"valid"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.False(t, out.Valid, "pending reservations do not admit")

	code, _ = s.do(http.MethodPost, "/api/reservations/"+res.ID+"/confirm", owner, nil)
	require.Equal(t, http.StatusOK, code)
	_, env = s.do(http.MethodPost, "/api/reservations/verify-pass", owner, map[string]string{"pass": pass})
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.True(t, out.Valid)

	code, _ = s.do(http.MethodPost, "/api/reservations/verify-pass", customer, map[string]string{"pass": pass})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPost, "/api/reservations/verify-pass", owner, map[string]string{"pass": "not-a-pass"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestDateLabel(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(http.MethodGet, "/api/dates/2025-05-30/label?locale=ko-KR", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "2025년 5월 30일 (금)", decode[map[string]string](t, env)["label"])

	code, env = s.do(http.MethodGet, "/api/dates/2025-05-30/label?locale=en", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Friday, May 30, 2025", decode[map[string]string](t, env)["label"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, api.StatusFor(models.ErrReservationNotFound))
	assert.Equal(t, http.StatusBadRequest, api.StatusFor(models.ErrCapacityExceeded))
	assert.Equal(t, http.StatusConflict, api.StatusFor(models.ErrDuplicateEmail))
	assert.Equal(t, http.StatusServiceUnavailable, api.StatusFor(models.ErrUnavailable))
	assert.Equal(t, http.StatusUnauthorized, api.StatusFor(models.ErrInvalidCredentials))
	assert.Equal(t, http.StatusForbidden, api.StatusFor(models.ErrForbidden))
	assert.Equal(t, http.StatusInternalServerError, api.StatusFor(fmt.Errorf("boom")))
}
