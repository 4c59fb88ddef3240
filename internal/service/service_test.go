package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/testutil"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

type env struct {
	db     *gorm.DB
	repo   *repo.GormRepo
	events *events.Recorder
	now    time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := testutil.NewDB(t)
	return &env{
		db:     gdb,
		repo:   repo.New(gdb),
		events: &events.Recorder{},
		now:    time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (e *env) clock() time.Time { return e.now }

func (e *env) auth() *AuthService {
	return &AuthService{
		Repo: e.repo,
		Issuer: &tokens.Issuer{
			AccessSecret:  []byte("access-secret-for-tests"),
			RefreshSecret: []byte("refresh-secret-for-tests"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Events: e.events,
	}
}

func kindOf(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, msg, se.Msg)
}

func signupReq(username string) transport.SignupRequest {
	return transport.SignupRequest{
		Username:  username,
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     username + "@example.com",
	}
}

func TestAuthService_SignupLoginRefreshLogout(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	svc := e.auth()
	ctx := context.Background()

	sess, err := svc.Signup(ctx, signupReq("ada"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, sess.User.Role)
	assert.NotEmpty(t, sess.Tokens.AccessToken)
	assert.Equal(t, []string{events.UserRegistered}, e.events.Types(events.TopicUsers))

	_, err = svc.Signup(ctx, signupReq("ada"))
	kindOf(t, err, ErrConflict, "Username or email already exists")

	_, err = svc.Login(ctx, transport.LoginRequest{Username: "ada", Password: "nope"})
	kindOf(t, err, ErrUnauthorized, "Invalid credentials")

	login, err := svc.Login(ctx, transport.LoginRequest{Username: "ada", Password: "secret123"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, rotated.Tokens.RefreshToken)

	// replaying the rotated token revokes the whole family
	_, err = svc.Refresh(ctx, login.Tokens.RefreshToken)
	kindOf(t, err, ErrUnauthorized, "Invalid refresh token")
	_, err = svc.Refresh(ctx, rotated.Tokens.RefreshToken)
	kindOf(t, err, ErrUnauthorized, "Invalid refresh token")

	_, err = svc.Refresh(ctx, "garbage")
	kindOf(t, err, ErrUnauthorized, "Invalid refresh token")
	_, err = svc.Refresh(ctx, "")
	kindOf(t, err, ErrValidation, "Refresh token required")

	fresh, err := svc.Login(ctx, transport.LoginRequest{Username: "ada", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, fresh.Tokens.RefreshToken))
	_, err = svc.Refresh(ctx, fresh.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	purged, err := svc.PurgeTokens(ctx)
	require.NoError(t, err)
	assert.Positive(t, purged)
}

func TestAuthService_CreateAdmin(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	u, err := e.auth().CreateAdmin(context.Background(), signupReq("root"))
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	svc := &UserService{Repo: e.repo}

	u := testutil.CreateUser(t, e.db, "ada", "secret123", models.RoleCustomer)
	testutil.CreateUser(t, e.db, "bob", "secret123", models.RoleCustomer)

	_, err := svc.UpdateProfile(ctx, u.ID, transport.UpdateProfileRequest{})
	kindOf(t, err, ErrValidation, "No fields to update")

	taken := "bob@example.com"
	_, err = svc.UpdateProfile(ctx, u.ID, transport.UpdateProfileRequest{Email: &taken})
	kindOf(t, err, ErrConflict, "Email already in use")

	wrong, next := "wrong", "brandnew1"
	_, err = svc.UpdateProfile(ctx, u.ID, transport.UpdateProfileRequest{CurrentPassword: &wrong, NewPassword: &next})
	kindOf(t, err, ErrValidation, "Current password is incorrect")

	current, name := "secret123", "Augusta"
	updated, err := svc.UpdateProfile(ctx, u.ID, transport.UpdateProfileRequest{FirstName: &name, CurrentPassword: &current, NewPassword: &next})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)

	_, err = e.repo.Authenticate(ctx, "ada", "brandnew1")
	assert.NoError(t, err)

	_, err = svc.Profile(ctx, 999)
	kindOf(t, err, ErrNotFound, "User not found")
}

type fakeIndex struct {
	indexed []string
	deleted []string
	hits    []string
	err     error
}

func (f *fakeIndex) IndexBook(_ context.Context, b *models.Book) error {
	f.indexed = append(f.indexed, b.ISBN)
	return nil
}

func (f *fakeIndex) DeleteBook(_ context.Context, isbn string) error {
	f.deleted = append(f.deleted, isbn)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []string, error) {
	return int64(len(f.hits)), f.hits, f.err
}

func TestBookService_Lifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	idx := &fakeIndex{}
	svc := &BookService{Repo: e.repo, Index: idx, Events: e.events}

	pub := testutil.CreatePublisher(t, e.db, "Penguin")
	cat := testutil.Category(t, e.db, "History")
	author := testutil.CreateAuthor(t, e.db, "Mary Beard")

	price := decimal.RequireFromString("19.999")
	req := transport.CreateBookRequest{
		ISBN: "9780871404237", Title: "SPQR", PublisherID: pub.ID, PublicationYear: 2015,
		SellingPrice: &price, CategoryID: cat.ID, AuthorIDs: []uint{author.ID},
	}
	b, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, DefaultReorderThreshold, b.ReorderThreshold)
	assert.Equal(t, "20", b.SellingPrice.String())
	require.Len(t, b.Authors, 1)
	assert.Equal(t, []string{"9780871404237"}, idx.indexed)

	_, err = svc.Create(ctx, req)
	kindOf(t, err, ErrConflict, "Book with this ISBN already exists")

	bad := req
	bad.ISBN = "1"
	bad.CategoryID = 999
	_, err = svc.Create(ctx, bad)
	kindOf(t, err, ErrValidation, "Category not found")

	_, err = svc.Update(ctx, b.ISBN, transport.UpdateBookRequest{})
	kindOf(t, err, ErrValidation, "No fields to update")

	title := "SPQR: A History of Ancient Rome"
	updated, err := svc.Update(ctx, b.ISBN, transport.UpdateBookRequest{Title: &title, AuthorIDs: []uint{}})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Empty(t, updated.Authors)

	_, err = svc.Update(ctx, "missing", transport.UpdateBookRequest{Title: &title})
	kindOf(t, err, ErrNotFound, "Book not found")

	require.NoError(t, svc.Delete(ctx, b.ISBN))
	assert.Equal(t, []string{b.ISBN}, idx.deleted)
	kindOf(t, svc.Delete(ctx, b.ISBN), ErrNotFound, "Book not found")

	assert.Equal(t, []string{events.BookCreated, events.BookUpdated, events.BookDeleted}, e.events.Types(events.TopicCatalog))
}

func TestBookService_Reindex(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	pub := testutil.CreatePublisher(t, e.db, "Verso")
	cat := testutil.Category(t, e.db, "Art")
	testutil.CreateBook(t, e.db, "111", pub, cat, testutil.BookOpts{Title: "Beta"})
	testutil.CreateBook(t, e.db, "222", pub, cat, testutil.BookOpts{Title: "Alpha"})

	n, err := (&BookService{Repo: e.repo}).Reindex(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	idx := &fakeIndex{}
	n, err = (&BookService{Repo: e.repo, Index: idx}).Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"222", "111"}, idx.indexed)
}

func TestBookService_SearchFallsBackToDatabase(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	pub := testutil.CreatePublisher(t, e.db, "Penguin")
	cat := testutil.Category(t, e.db, "Science")
	testutil.CreateBook(t, e.db, "111", pub, cat, testutil.BookOpts{Title: "Cosmos"})
	testutil.CreateBook(t, e.db, "222", pub, cat, testutil.BookOpts{Title: "Pale Blue Dot"})

	idx := &fakeIndex{hits: []string{"222", "111"}}
	svc := &BookService{Repo: e.repo, Index: idx}
	total, books, err := svc.Search(ctx, "anything", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "222", books[0].ISBN)

	idx.err = errors.New("connection refused")
	total, books, err = svc.Search(ctx, "cosmos", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "111", books[0].ISBN)

	plain := &BookService{Repo: e.repo}
	_, books, err = plain.Search(ctx, "   ", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestCatalogService_Publishers(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	svc := &CatalogService{Repo: e.repo}

	p, err := svc.CreatePublisher(ctx, transport.CreatePublisherRequest{Name: "Vintage"})
	require.NoError(t, err)

	_, err = svc.UpdatePublisher(ctx, p.ID, transport.UpdatePublisherRequest{})
	kindOf(t, err, ErrValidation, "No fields to update")

	name := "Vintage Books"
	got, err := svc.UpdatePublisher(ctx, p.ID, transport.UpdatePublisherRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)

	_, err = svc.UpdatePublisher(ctx, 999, transport.UpdatePublisherRequest{Name: &name})
	kindOf(t, err, ErrNotFound, "Publisher not found")

	testutil.CreateBook(t, e.db, "111", p, testutil.Category(t, e.db, "Art"), testutil.BookOpts{})
	kindOf(t, svc.DeletePublisher(ctx, p.ID), ErrConflict, "Cannot delete publisher with existing books")

	bare, err := svc.CreatePublisher(ctx, transport.CreatePublisherRequest{Name: "Tor"})
	require.NoError(t, err)
	_, err = e.repo.CreatePublisherOrder(ctx, bare.ID, []repo.OrderLine{{ISBN: "111", Quantity: 3}}, e.clock())
	require.NoError(t, err)
	kindOf(t, svc.DeletePublisher(ctx, bare.ID), ErrConflict, "Cannot delete publisher with existing orders")

	a, err := svc.CreateAuthor(ctx, transport.AuthorRequest{Name: "Ursula K. Le Guin"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteAuthor(ctx, a.ID))
	kindOf(t, svc.DeleteAuthor(ctx, a.ID), ErrNotFound, "Author not found")

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 5)
	_, err = svc.GetCategory(ctx, 999)
	kindOf(t, err, ErrNotFound, "Category not found")
}

func (e *env) cart() *CartService {
	return &CartService{
		Repo:    e.repo,
		Reorder: &ReorderService{Repo: e.repo, Quantity: 25, Events: e.events, Now: e.clock},
		Events:  e.events,
		Now:     e.clock,
	}
}

func TestCartService_Checkout(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	svc := e.cart()

	u := testutil.CreateUser(t, e.db, "ada", "secret123", models.RoleCustomer)
	pub := testutil.CreatePublisher(t, e.db, "Penguin")
	cat := testutil.Category(t, e.db, "Science")
	testutil.CreateBook(t, e.db, "111", pub, cat, testutil.BookOpts{Price: "15.00", Stock: 12, Threshold: 10})

	card := "4111-1111 1111-1111"
	_, err := svc.Checkout(ctx, u.ID, transport.CheckoutRequest{CardNumber: card, Expiry: "2030-01-31"})
	kindOf(t, err, ErrValidation, "Shopping cart is empty")

	_, created, err := svc.AddItem(ctx, u.ID, transport.AddCartItemRequest{ISBN: "111", Quantity: 3})
	require.NoError(t, err)
	assert.True(t, created)

	_, _, err = svc.AddItem(ctx, u.ID, transport.AddCartItemRequest{ISBN: "111", Quantity: 10})
	kindOf(t, err, ErrValidation, "Insufficient stock")
	_, _, err = svc.AddItem(ctx, u.ID, transport.AddCartItemRequest{ISBN: "404", Quantity: 1})
	kindOf(t, err, ErrNotFound, "Book not found")

	view, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, "45", view.Total.String())

	_, err = svc.Checkout(ctx, u.ID, transport.CheckoutRequest{CardNumber: "1234 5678 9012 3456", Expiry: "2030-01-31"})
	kindOf(t, err, ErrValidation, "Invalid card number")

	_, err = svc.Checkout(ctx, u.ID, transport.CheckoutRequest{CardNumber: card, Expiry: "2025-03-14"})
	kindOf(t, err, ErrValidation, "Credit card has expired")

	order, err := svc.Checkout(ctx, u.ID, transport.CheckoutRequest{CardNumber: card, Expiry: "2025-03-15"})
	require.NoError(t, err)
	assert.Equal(t, "1111", order.CardLastFour)
	assert.True(t, decimal.NewFromInt(45).Equal(order.TotalAmount))
	assert.Equal(t, 9, testutil.Stock(t, e.db, "111"))

	assert.Equal(t, []string{events.OrderPlaced}, e.events.Types(events.TopicOrders))
	assert.Equal(t, []string{events.PublisherOrderCreated}, e.events.Types(events.TopicPublisherOrders))

	var pending []models.PublisherOrderItem
	require.NoError(t, e.db.Find(&pending).Error)
	require.Len(t, pending, 1)
	assert.Equal(t, 25, pending[0].Quantity)
}

func TestPublisherOrderService(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	svc := &PublisherOrderService{Repo: e.repo, Events: e.events, Now: e.clock}

	pub := testutil.CreatePublisher(t, e.db, "Penguin")
	testutil.CreateBook(t, e.db, "111", pub, testutil.Category(t, e.db, "Art"), testutil.BookOpts{Stock: 2})

	_, _, err := svc.List(ctx, "Shipped", 0, 10)
	kindOf(t, err, ErrValidation, "Invalid status")

	_, err = svc.Create(ctx, transport.CreatePublisherOrderRequest{PublisherID: 999, Items: []transport.PublisherOrderItemRequest{{ISBN: "111", Quantity: 1}}})
	kindOf(t, err, ErrValidation, "Publisher not found")

	po, err := svc.Create(ctx, transport.CreatePublisherOrderRequest{PublisherID: pub.ID, Items: []transport.PublisherOrderItemRequest{{ISBN: "111", Quantity: 8}}})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PublisherOrderConfirmed, confirmed.Status)
	assert.Equal(t, 10, testutil.Stock(t, e.db, "111"))

	_, err = svc.Cancel(ctx, po.ID)
	kindOf(t, err, ErrNotFound, "Publisher order not found or not pending")

	assert.Equal(t, []string{events.PublisherOrderCreated, events.PublisherOrderConfirmed}, e.events.Types(events.TopicPublisherOrders))
}

func TestReportService(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	rr, err := repo.NewReportRepo(e.db)
	require.NoError(t, err)
	svc := &ReportService{Repo: rr, Now: e.clock}

	_, err = svc.SalesByDate(ctx, "")
	kindOf(t, err, ErrValidation, "Date parameter is required")
	_, err = svc.SalesByDate(ctx, "15/03/2025")
	kindOf(t, err, ErrValidation, "Invalid date, expected YYYY-MM-DD")

	day, err := svc.SalesByDate(ctx, "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", day.Date)
	assert.Zero(t, day.NumberOfOrders)

	prev, err := svc.PreviousMonthSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2025, prev.Year)
	assert.Equal(t, 2, prev.Month)

	_, err = svc.TopCustomers(ctx, 0, 5)
	assert.ErrorIs(t, err, ErrValidation)
	top, err := svc.TopBooks(ctx, DefaultReportMonths, DefaultTopBooks)
	require.NoError(t, err)
	assert.Empty(t, top.Books)

	_, err = svc.BookReorders(ctx, "missing")
	kindOf(t, err, ErrNotFound, "Book not found")
}
