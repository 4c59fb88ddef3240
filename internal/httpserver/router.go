package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/bookstore/internal/middleware/logging"
)

const APIPrefix = "/api/v1"

type Deps struct {
	Auth            *AuthHTTP
	Users           *UserHTTP
	Books           *BookHTTP
	Catalog         *CatalogHTTP
	Cart            *CartHTTP
	Orders          *OrderHTTP
	PublisherOrders *PublisherOrderHTTP
	Reports         *ReportHTTP
	Health          *HealthHTTP

	JWTSecret   []byte
	UserChecker auth.UserChecker
	// AuthLimiter guards the auth endpoints. Nil disables rate limiting.
	AuthLimiter echo.MiddlewareFunc
}

type Options struct {
	AllowedOrigins []string
	CookieSecure   bool
}

// New builds the echo instance with the global middleware stack and all routes.
func New(log zerolog.Logger, opts Options, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "0",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "no-referrer",
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token"},
		ExposeHeaders:    []string{echo.HeaderXRequestID, "X-CSRF-Token"},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(csrf.Middleware(csrf.Config{
		Secure:       opts.CookieSecure,
		SkipPrefixes: []string{APIPrefix + "/auth", "/health"},
	}))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", d.Health.Health)
	e.GET("/health/live", d.Health.Live)
	e.GET("/health/ready", d.Health.Ready)

	api := e.Group(APIPrefix)
	requireAuth := auth.RequireAuth(d.JWTSecret, d.UserChecker)
	admin := auth.RequireAdmin()
	customer := auth.RequireCustomer()

	authGroup := api.Group("/auth")
	if d.AuthLimiter != nil {
		authGroup.Use(d.AuthLimiter)
	}
	authGroup.POST("/signup", d.Auth.Signup)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/refresh", d.Auth.Refresh)
	authGroup.POST("/logout", d.Auth.Logout)

	users := api.Group("/users", requireAuth)
	users.GET("/me", d.Users.Me)
	users.PUT("/me", d.Users.UpdateMe)

	books := api.Group("/books")
	books.GET("", d.Books.List)
	books.GET("/search", d.Books.Search)
	books.GET("/:isbn", d.Books.Get)
	books.POST("", d.Books.Create, requireAuth, admin)
	books.PUT("/:isbn", d.Books.Update, requireAuth, admin)
	books.DELETE("/:isbn", d.Books.Delete, requireAuth, admin)

	authors := api.Group("/authors")
	authors.GET("", d.Catalog.ListAuthors)
	authors.GET("/:id", d.Catalog.GetAuthor)
	authors.POST("", d.Catalog.CreateAuthor, requireAuth, admin)
	authors.PUT("/:id", d.Catalog.UpdateAuthor, requireAuth, admin)
	authors.DELETE("/:id", d.Catalog.DeleteAuthor, requireAuth, admin)

	publishers := api.Group("/publishers")
	publishers.GET("", d.Catalog.ListPublishers)
	publishers.GET("/:id", d.Catalog.GetPublisher)
	publishers.POST("", d.Catalog.CreatePublisher, requireAuth, admin)
	publishers.PUT("/:id", d.Catalog.UpdatePublisher, requireAuth, admin)
	publishers.DELETE("/:id", d.Catalog.DeletePublisher, requireAuth, admin)

	categories := api.Group("/categories")
	categories.GET("", d.Catalog.ListCategories)
	categories.GET("/:id", d.Catalog.GetCategory)

	cart := api.Group("/cart", requireAuth, customer)
	cart.GET("", d.Cart.Get)
	cart.POST("/items", d.Cart.AddItem)
	cart.PUT("/items/:itemId", d.Cart.UpdateItem)
	cart.DELETE("/items/:itemId", d.Cart.RemoveItem)
	cart.DELETE("/clear", d.Cart.Clear)
	cart.POST("/checkout", d.Cart.Checkout)

	orders := api.Group("/orders", requireAuth)
	orders.GET("", d.Orders.List)
	orders.GET("/:id", d.Orders.Get)

	pubOrders := api.Group("/publisher-orders", requireAuth, admin)
	pubOrders.GET("", d.PublisherOrders.List)
	pubOrders.GET("/:id", d.PublisherOrders.Get)
	pubOrders.POST("", d.PublisherOrders.Create)
	pubOrders.POST("/:id/confirm", d.PublisherOrders.Confirm)
	pubOrders.POST("/:id/cancel", d.PublisherOrders.Cancel)
	pubOrders.PUT("/:id/confirm", d.PublisherOrders.Confirm)
	pubOrders.PUT("/:id/cancel", d.PublisherOrders.Cancel)

	reports := api.Group("/reports", requireAuth, admin)
	reports.GET("/sales/previous-month", d.Reports.PreviousMonthSales)
	reports.GET("/sales/by-date", d.Reports.SalesByDate)
	reports.GET("/top-customers", d.Reports.TopCustomers)
	reports.GET("/top-books", d.Reports.TopBooks)
	reports.GET("/book-reorders/:isbn", d.Reports.BookReorders)
	reports.GET("/dashboard", d.Reports.Dashboard)
}
