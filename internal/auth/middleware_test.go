package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-reservation/internal/models"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, rawToken string) (*models.User, *Claims, error) {
	args := m.Called(ctx, rawToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*Claims), args.Error(2)
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	if u := UserFromContext(r.Context()); u != nil {
		w.Write([]byte(u.ID + ":" + SessionIDFromContext(r.Context())))
		return
	}
	w.Write([]byte("anonymous"))
}

func TestMiddlewareAnonymousPassThrough(t *testing.T) {
	a := new(MockAuthenticator)
	h := Middleware(a)(http.HandlerFunc(whoAmI))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
	a.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestMiddlewareAttachesUser(t *testing.T) {
	a := new(MockAuthenticator)
	a.On("Authenticate", mock.Anything, "good").
		Return(&models.User{ID: "user-1", Role: models.RoleCustomer}, &Claims{UserID: "user-1", SessionID: "sess-1"}, nil)
	h := Middleware(a)(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "user-1:sess-1", rec.Body.String())
	a.AssertExpectations(t)
}

func TestMiddlewareRejectsBadToken(t *testing.T) {
	a := new(MockAuthenticator)
	a.On("Authenticate", mock.Anything, "bad").Return(nil, nil, models.ErrUnauthorized)
	h := Middleware(a)(http.HandlerFunc(whoAmI))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleOwner)(http.HandlerFunc(whoAmI))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: "c", Role: models.RoleCustomer}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(WithUser(req.Context(), &models.User{ID: "o", Role: models.RoleOwner}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(whoAmI))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
