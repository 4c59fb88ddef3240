package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/tokens"
)

var secret = []byte("access-secret-for-tests")

type users map[uint]bool

func (u users) UserExists(_ context.Context, id uint) (bool, error) {
	if id == 500 {
		return false, errors.New("db down")
	}
	return u[id], nil
}

func issue(t *testing.T, id uint, role string, now time.Time) string {
	t.Helper()
	iss := &tokens.Issuer{
		AccessSecret:  secret,
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    time.Hour,
		Now:           func() time.Time { return now },
	}
	p, err := iss.Issue(id, role)
	require.NoError(t, err)
	return p.AccessToken
}

func newServer() *echo.Echo {
	e := echo.New()
	protected := e.Group("", RequireAuth(secret, users{1: true, 2: true}))
	protected.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": UserID(c), "role": Role(c)})
	})
	protected.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireAdmin())
	protected.GET("/shop", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireCustomer())
	return e
}

func do(e *echo.Echo, path string, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func bearer(tok string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	e := newServer()
	now := time.Now()

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
		msg    string
	}{
		{name: "missing", status: http.StatusUnauthorized, msg: "Access token required"},
		{name: "garbage", setup: bearer("not-a-jwt"), status: http.StatusUnauthorized, msg: "Invalid token"},
		{name: "expired", setup: bearer(issue(t, 1, models.RoleCustomer, now.Add(-time.Hour))), status: http.StatusUnauthorized, msg: "Token expired"},
		{name: "deleted user", setup: bearer(issue(t, 9, models.RoleCustomer, now)), status: http.StatusUnauthorized, msg: "User not found"},
		{name: "lookup failure", setup: bearer(issue(t, 500, models.RoleCustomer, now)), status: http.StatusInternalServerError, msg: "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, "/me", tt.setup)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, message(t, rec))
		})
	}
}

func TestRequireAuth_HeaderAndCookie(t *testing.T) {
	t.Parallel()
	e := newServer()
	tok := issue(t, 2, models.RoleAdmin, time.Now())

	rec := do(e, "/me", bearer(tok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"role":"Admin"}`, rec.Body.String())

	rec = do(e, "/me", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: tok})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	e := newServer()
	admin := bearer(issue(t, 2, models.RoleAdmin, time.Now()))
	customer := bearer(issue(t, 1, models.RoleCustomer, time.Now()))

	assert.Equal(t, http.StatusOK, do(e, "/admin", admin).Code)
	assert.Equal(t, http.StatusOK, do(e, "/shop", customer).Code)

	rec := do(e, "/admin", customer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", message(t, rec))

	rec = do(e, "/shop", admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Customer access required", message(t, rec))
}
