package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/middleware/ratelimit"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/testutil"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/internal/util"
)

type testServer struct {
	e      *echo.Echo
	db     *gorm.DB
	events *events.Recorder
}

func newServer(t *testing.T, limiter echo.MiddlewareFunc) *testServer {
	t.Helper()

	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	rr, err := repo.NewReportRepo(gdb)
	require.NoError(t, err)

	rec := &events.Recorder{}
	issuer := &tokens.Issuer{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	reorder := &service.ReorderService{Repo: r, Events: rec}

	d := &Deps{
		Auth:            &AuthHTTP{Svc: &service.AuthService{Repo: r, Issuer: issuer, Events: rec}},
		Users:           &UserHTTP{Svc: &service.UserService{Repo: r}},
		Books:           &BookHTTP{Svc: &service.BookService{Repo: r, Events: rec}},
		Catalog:         &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		Cart:            &CartHTTP{Svc: &service.CartService{Repo: r, Reorder: reorder, Events: rec}},
		Orders:          &OrderHTTP{Svc: &service.OrderService{Repo: r}},
		PublisherOrders: &PublisherOrderHTTP{Svc: &service.PublisherOrderService{Repo: r, Events: rec}},
		Reports:         &ReportHTTP{Svc: &service.ReportService{Repo: rr}},
		Health:          &HealthHTTP{DB: func(ctx context.Context) error { return db.Ping(ctx, gdb) }},
		JWTSecret:       issuer.AccessSecret,
		UserChecker:     r,
		AuthLimiter:     limiter,
	}

	return &testServer{e: New(zerolog.Nop(), Options{}, d), db: gdb, events: rec}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (s *testServer) signup(t *testing.T, username string) string {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{
		"username":  username,
		"password":  "secret123",
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     username + "@example.com",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body["accessToken"].(string)
}

func (s *testServer) login(t *testing.T, username, password string) map[string]any {
	t.Helper()
	rec, body := s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{"username": username, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return body
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	testutil.CreateUser(t, s.db, "root", "rootpass", models.RoleAdmin)
	return s.login(t, "root", "rootpass")["accessToken"].(string)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	rec, body := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	rec, _ = s.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	rec, body := s.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", body["error"])
}

func TestHugePageIsClamped(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	rec, body := s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/books?page=%d&limit=100", math.MaxInt), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, body["data"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(util.MaxPage), meta["page"])
	assert.Equal(t, false, meta["has_next"])
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	access := s.signup(t, "ada")
	assert.Equal(t, []string{events.UserRegistered}, s.events.Types(events.TopicUsers))

	rec, body := s.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{
		"username": "ada", "password": "secret123", "firstName": "A", "lastName": "B", "email": "other@example.com",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username or email already exists", body["error"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{"username": "ada", "password": "wrong!"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", body["error"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/users/me", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotContains(t, body, "passwordHash")

	rec, body = s.do(t, http.MethodPut, "/api/v1/users/me", map[string]any{}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No fields to update", body["error"])

	rec, body = s.do(t, http.MethodPut, "/api/v1/users/me", map[string]any{"firstName": "Augusta"}, access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Augusta", body["user"].(map[string]any)["firstName"])

	rec, body = s.do(t, http.MethodPut, "/api/v1/users/me", map[string]any{"currentPassword": "nope123", "newPassword": "brandnew1"}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password is incorrect", body["error"])

	sess := s.login(t, "ada", "secret123")
	refresh := sess["refreshToken"].(string)

	rec, body = s.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, refresh, body["refreshToken"])
	assert.NotEmpty(t, rec.Result().Cookies())

	rec, body = s.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{"refreshToken": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token", body["error"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Refresh token required", body["error"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", body["message"])
}

func TestValidationErrorShape(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)

	rec, body := s.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{"username": "ab"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body["error"])
	assert.NotEmpty(t, body["fields"])
}

func TestAccessControl(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)
	customer := s.signup(t, "bob")
	admin := s.admin(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		msg    string
	}{
		{"no token", http.MethodGet, "/api/v1/cart", "", http.StatusUnauthorized, "Access token required"},
		{"garbage token", http.MethodGet, "/api/v1/cart", "not.a.jwt", http.StatusUnauthorized, "Invalid token"},
		{"customer on admin route", http.MethodGet, "/api/v1/reports/dashboard", customer, http.StatusForbidden, "Admin access required"},
		{"admin on customer route", http.MethodGet, "/api/v1/cart", admin, http.StatusForbidden, "Customer access required"},
		{"customer creates book", http.MethodPost, "/api/v1/books", customer, http.StatusForbidden, "Admin access required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.do(t, tt.method, tt.path, nil, tt.token)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestCookieAuthRequiresCSRF(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)
	access := s.signup(t, "carol")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/clear", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: access})
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: access})
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCatalogCartCheckout(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)
	admin := s.admin(t)

	pub := testutil.CreatePublisher(t, s.db, "Penguin")
	cat := testutil.Category(t, s.db, "Art")

	rec, body := s.do(t, http.MethodPost, "/api/v1/authors", map[string]any{"name": "Le Guin"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	authorID := body["author"].(map[string]any)["authorId"]

	rec, body = s.do(t, http.MethodPost, "/api/v1/books", map[string]any{
		"isbn":             "9780441478125",
		"title":            "The Left Hand of Darkness",
		"publisherId":      pub.ID,
		"publicationYear":  1969,
		"sellingPrice":     10,
		"categoryId":       cat.ID,
		"quantityInStock":  12,
		"reorderThreshold": 10,
		"authorIds":        []any{authorID},
	}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "9780441478125", body["isbn"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/books", map[string]any{
		"isbn": "9780441478125", "title": "Dup", "publisherId": pub.ID, "publicationYear": 1969,
		"sellingPrice": 1, "categoryId": cat.ID,
	}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/v1/books?author=guin", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["meta"].(map[string]any)["total"])

	customer := s.signup(t, "dave")

	rec, _ = s.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"isbn": "9780441478125", "quantity": 2}, customer)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = s.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"isbn": "9780441478125", "quantity": 1}, customer)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, body = s.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"isbn": "9780441478125", "quantity": 50}, customer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Insufficient stock", body["error"])
	rec, _ = s.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"isbn": "0000000000", "quantity": 1}, customer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/v1/cart", nil, customer)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["items"], 1)

	rec, body = s.do(t, http.MethodPost, "/api/v1/cart/checkout", map[string]any{"cardNumber": "1234", "expiry": "2099-12-31"}, customer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid card number", body["error"])

	rec, body = s.do(t, http.MethodPost, "/api/v1/cart/checkout", map[string]any{"cardNumber": "4111 1111 1111 1111", "expiry": "2099-12-31"}, customer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decimal.RequireFromString(body["totalAmount"].(string)).Equal(decimal.NewFromInt(30)))
	orderID := body["orderId"]

	assert.Equal(t, 9, testutil.Stock(t, s.db, "9780441478125"))

	rec, body = s.do(t, http.MethodPost, "/api/v1/cart/checkout", map[string]any{"cardNumber": "4111111111111111", "expiry": "2099-12-31"}, customer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Shopping cart is empty", body["error"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/orders", nil, customer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["meta"].(map[string]any)["total"])

	orderPath := fmt.Sprintf("/api/v1/orders/%v", orderID)
	rec, _ = s.do(t, http.MethodGet, orderPath, nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, orderPath, nil, s.signup(t, "eve"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// stock fell below the threshold, so a reorder is pending
	rec, body = s.do(t, http.MethodGet, "/api/v1/publisher-orders?status=Pending", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	poID := data[0].(map[string]any)["pubOrderId"]

	rec, _ = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/publisher-orders/%v/confirm", poID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 59, testutil.Stock(t, s.db, "9780441478125"))

	rec, body = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/publisher-orders/%v/cancel", poID), nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Publisher order not found or not pending", body["error"])

	rec, body = s.do(t, http.MethodPut, fmt.Sprintf("/api/v1/publisher-orders/%v/confirm", poID), nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Publisher order not found or not pending", body["error"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/publisher-orders?status=Bogus", nil, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports(t *testing.T) {
	t.Parallel()
	s := newServer(t, nil)
	admin := s.admin(t)

	rec, body := s.do(t, http.MethodGet, "/api/v1/reports/sales/by-date", nil, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Date parameter is required", body["error"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/reports/sales/by-date?date=2025-01-02", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-01-02", body["date"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/reports/top-books?months=2&top=3", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["months"])
	assert.EqualValues(t, 3, body["topN"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/reports/dashboard", nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/reports/book-reorders/404404", nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	t.Parallel()
	s := newServer(t, ratelimit.Middleware(ratelimit.NewMemoryStore(2, time.Hour)))

	creds := map[string]any{"username": "nobody", "password": "whatever"}
	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", creds, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, body := s.do(t, http.MethodPost, "/api/v1/auth/login", creds, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later", body["error"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/categories", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
