package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

// ReportRepo runs the read-only aggregate queries behind the admin reports.
// It shares the connection pool of the gorm handle it was built from.
type ReportRepo struct {
	DB *sqlx.DB
}

func NewReportRepo(gdb *gorm.DB) (*ReportRepo, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("report repo: %w", err)
	}
	return &ReportRepo{DB: sqlx.NewDb(sqlDB, gdb.Dialector.Name())}, nil
}

type SalesTotal struct {
	TotalSales     decimal.Decimal `db:"total_sales"      json:"totalSales"`
	NumberOfOrders int64           `db:"number_of_orders" json:"numberOfOrders"`
}

type TopCustomer struct {
	UserID     uint            `db:"user_id"     json:"userId"`
	Username   string          `db:"username"    json:"username"`
	FirstName  string          `db:"first_name"  json:"firstName"`
	LastName   string          `db:"last_name"   json:"lastName"`
	Email      string          `db:"email"       json:"email"`
	TotalSpent decimal.Decimal `db:"total_spent" json:"totalSpent"`
	OrderCount int64           `db:"order_count" json:"orderCount"`
}

type TopBook struct {
	ISBN      string          `db:"isbn"       json:"isbn"`
	Title     string          `db:"title"      json:"title"`
	TotalSold int64           `db:"total_sold" json:"totalSold"`
	Revenue   decimal.Decimal `db:"revenue"    json:"revenue"`
}

type BookReorders struct {
	ISBN           string `db:"isbn"            json:"isbn"`
	Title          string `db:"title"           json:"title"`
	TimesReordered int64  `db:"times_reordered" json:"timesReordered"`
}

type DashboardStats struct {
	TotalBooks             int64           `db:"total_books"              json:"totalBooks"`
	TotalCustomers         int64           `db:"total_customers"          json:"totalCustomers"`
	TotalOrders            int64           `db:"total_orders"             json:"totalOrders"`
	TotalRevenue           decimal.Decimal `db:"total_revenue"            json:"totalRevenue"`
	PendingPublisherOrders int64           `db:"pending_publisher_orders" json:"pendingPublisherOrders"`
	LowStockBooks          int64           `db:"low_stock_books"          json:"lowStockBooks"`
}

type RecentOrder struct {
	OrderID     uint            `db:"order_id"     json:"orderId"`
	Username    string          `db:"username"     json:"username"`
	FirstName   string          `db:"first_name"   json:"firstName"`
	LastName    string          `db:"last_name"    json:"lastName"`
	OrderDate   time.Time       `db:"order_date"   json:"orderDate"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Status      string          `db:"status"       json:"status"`
}

type LowStockBook struct {
	ISBN             string `db:"isbn"               json:"isbn"`
	Title            string `db:"title"              json:"title"`
	QuantityInStock  int    `db:"quantity_in_stock"  json:"quantityInStock"`
	ReorderThreshold int    `db:"reorder_threshold"  json:"reorderThreshold"`
	PublisherName    string `db:"publisher_name"     json:"publisherName"`
}

type Dashboard struct {
	Stats         DashboardStats `json:"stats"`
	RecentOrders  []RecentOrder  `json:"recentOrders"`
	LowStockBooks []LowStockBook `json:"lowStockBooks"`
}

// SalesBetween sums completed orders placed in [from, to).
func (r *ReportRepo) SalesBetween(ctx context.Context, from, to time.Time) (SalesTotal, error) {
	var out SalesTotal
	q := r.DB.Rebind(`
		SELECT COALESCE(SUM(total_amount), 0) AS total_sales,
		       COUNT(*)                       AS number_of_orders
		FROM customer_orders
		WHERE order_date >= ? AND order_date < ? AND status = ?`)
	if err := r.DB.GetContext(ctx, &out, q, from, to, models.OrderStatusCompleted); err != nil {
		return SalesTotal{}, err
	}
	return out, nil
}

func (r *ReportRepo) TopCustomers(ctx context.Context, since time.Time, top int) ([]TopCustomer, error) {
	out := []TopCustomer{}
	q := r.DB.Rebind(`
		SELECT u.id AS user_id, u.username, u.first_name, u.last_name, u.email,
		       SUM(o.total_amount) AS total_spent,
		       COUNT(o.id)         AS order_count
		FROM customer_orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.order_date >= ? AND o.status = ?
		GROUP BY u.id, u.username, u.first_name, u.last_name, u.email
		ORDER BY total_spent DESC, u.id ASC
		LIMIT ?`)
	if err := r.DB.SelectContext(ctx, &out, q, since, models.OrderStatusCompleted, top); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReportRepo) TopBooks(ctx context.Context, since time.Time, top int) ([]TopBook, error) {
	out := []TopBook{}
	q := r.DB.Rebind(`
		SELECT b.isbn, b.title,
		       SUM(i.quantity)               AS total_sold,
		       SUM(i.quantity * i.unit_price) AS revenue
		FROM customer_order_items i
		JOIN customer_orders o ON o.id = i.order_id
		JOIN books b ON b.isbn = i.isbn
		WHERE o.order_date >= ? AND o.status = ?
		GROUP BY b.isbn, b.title
		ORDER BY total_sold DESC, b.isbn ASC
		LIMIT ?`)
	if err := r.DB.SelectContext(ctx, &out, q, since, models.OrderStatusCompleted, top); err != nil {
		return nil, err
	}
	return out, nil
}

// BookReorders counts the publisher orders that were not cancelled and
// include isbn. Returns gorm.ErrRecordNotFound for an unknown book.
func (r *ReportRepo) BookReorders(ctx context.Context, isbn string) (BookReorders, error) {
	var out BookReorders
	q := r.DB.Rebind(`
		SELECT b.isbn, b.title, COUNT(DISTINCT po.id) AS times_reordered
		FROM books b
		LEFT JOIN publisher_order_items i ON i.isbn = b.isbn
		LEFT JOIN publisher_orders po ON po.id = i.publisher_order_id AND po.status <> ?
		WHERE b.isbn = ?
		GROUP BY b.isbn, b.title`)
	if err := r.DB.GetContext(ctx, &out, q, models.PublisherOrderCancelled, isbn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookReorders{}, gorm.ErrRecordNotFound
		}
		return BookReorders{}, err
	}
	return out, nil
}

func (r *ReportRepo) Dashboard(ctx context.Context, limit int) (*Dashboard, error) {
	var d Dashboard

	stats := r.DB.Rebind(`
		SELECT
		  (SELECT COUNT(*) FROM books)                                          AS total_books,
		  (SELECT COUNT(*) FROM users WHERE role = ?)                           AS total_customers,
		  (SELECT COUNT(*) FROM customer_orders)                                AS total_orders,
		  (SELECT COALESCE(SUM(total_amount), 0) FROM customer_orders)          AS total_revenue,
		  (SELECT COUNT(*) FROM publisher_orders WHERE status = ?)              AS pending_publisher_orders,
		  (SELECT COUNT(*) FROM books WHERE quantity_in_stock < reorder_threshold) AS low_stock_books`)
	if err := r.DB.GetContext(ctx, &d.Stats, stats, models.RoleCustomer, models.PublisherOrderPending); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	d.RecentOrders = []RecentOrder{}
	recent := r.DB.Rebind(`
		SELECT o.id AS order_id, u.username, u.first_name, u.last_name, o.order_date, o.total_amount, o.status
		FROM customer_orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.order_date DESC, o.id DESC
		LIMIT ?`)
	if err := r.DB.SelectContext(ctx, &d.RecentOrders, recent, limit); err != nil {
		return nil, fmt.Errorf("dashboard recent orders: %w", err)
	}

	d.LowStockBooks = []LowStockBook{}
	low := r.DB.Rebind(`
		SELECT b.isbn, b.title, b.quantity_in_stock, b.reorder_threshold, p.name AS publisher_name
		FROM books b
		JOIN publishers p ON p.id = b.publisher_id
		WHERE b.quantity_in_stock < b.reorder_threshold
		ORDER BY b.quantity_in_stock ASC, b.isbn ASC
		LIMIT ?`)
	if err := r.DB.SelectContext(ctx, &d.LowStockBooks, low, limit); err != nil {
		return nil, fmt.Errorf("dashboard low stock: %w", err)
	}
	return &d, nil
}
