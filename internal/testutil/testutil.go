// Package testutil opens throwaway sqlite databases and inserts the catalog
// rows most tests start from.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/hash"
	"github.com/Skotchmaster/bookstore/internal/models"
)

// NewDB returns a migrated in-memory database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	gdb, err := db.Open(context.Background(), db.DriverSQLite, dsn, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, db.AutoMigrate(context.Background(), gdb))
	return gdb
}

func CreateUser(t *testing.T, gdb *gorm.DB, username, password, role string) *models.User {
	t.Helper()

	h, err := hash.HashPassword(password)
	require.NoError(t, err)

	u := models.User{
		Username:     username,
		PasswordHash: h,
		FirstName:    "Test",
		LastName:     "User",
		Email:        username + "@example.com",
		Role:         role,
	}
	require.NoError(t, gdb.Create(&u).Error)
	if role == models.RoleCustomer {
		require.NoError(t, gdb.Create(&models.ShoppingCart{UserID: u.ID}).Error)
	}
	return &u
}

func CreatePublisher(t *testing.T, gdb *gorm.DB, name string) *models.Publisher {
	t.Helper()
	p := models.Publisher{Name: name}
	require.NoError(t, gdb.Create(&p).Error)
	return &p
}

func CreateAuthor(t *testing.T, gdb *gorm.DB, name string) *models.Author {
	t.Helper()
	a := models.Author{Name: name}
	require.NoError(t, gdb.Create(&a).Error)
	return &a
}

// Category returns one of the seeded categories.
func Category(t *testing.T, gdb *gorm.DB, name string) *models.Category {
	t.Helper()
	var c models.Category
	require.NoError(t, gdb.Where("name = ?", name).First(&c).Error)
	return &c
}

type BookOpts struct {
	Title     string
	Price     string
	Stock     int
	Threshold int
	Authors   []models.Author
}

func CreateBook(t *testing.T, gdb *gorm.DB, isbn string, pub *models.Publisher, cat *models.Category, o BookOpts) *models.Book {
	t.Helper()

	if o.Title == "" {
		o.Title = "Book " + isbn
	}
	if o.Price == "" {
		o.Price = "10.00"
	}

	b := models.Book{
		ISBN:             isbn,
		Title:            o.Title,
		PublisherID:      pub.ID,
		PublicationYear:  2020,
		SellingPrice:     decimal.RequireFromString(o.Price),
		CategoryID:       cat.ID,
		QuantityInStock:  o.Stock,
		ReorderThreshold: o.Threshold,
	}
	require.NoError(t, gdb.Omit("Authors", "Publisher", "Category").Create(&b).Error)
	if len(o.Authors) > 0 {
		require.NoError(t, gdb.Model(&b).Association("Authors").Append(o.Authors))
	}
	return &b
}

func Stock(t *testing.T, gdb *gorm.DB, isbn string) int {
	t.Helper()
	var b models.Book
	require.NoError(t, gdb.Where("isbn = ?", isbn).First(&b).Error)
	return b.QuantityInStock
}
