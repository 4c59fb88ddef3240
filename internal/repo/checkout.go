package repo

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type Payment struct {
	LastFour string
	Expiry   time.Time
}

// Checkout turns the user's cart into a completed order. Books are locked in
// ISBN order, stock is decremented and the cart is emptied, all in one
// transaction. Nothing changes when any line exceeds stock.
func (r *GormRepo) Checkout(ctx context.Context, userID uint, pay Payment, now time.Time) (*models.CustomerOrder, error) {
	var order *models.CustomerOrder
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.ShoppingCart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCartNotFound
			}
			return err
		}

		var lines []models.CartItem
		if err := tx.Where("cart_id = ?", cart.ID).Find(&lines).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}
		sort.Slice(lines, func(i, j int) bool { return lines[i].ISBN < lines[j].ISBN })

		isbns := make([]string, 0, len(lines))
		for _, l := range lines {
			isbns = append(isbns, l.ISBN)
		}

		var books []models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("isbn IN ?", isbns).
			Order("isbn ASC").
			Find(&books).Error; err != nil {
			return err
		}
		byISBN := make(map[string]models.Book, len(books))
		for _, b := range books {
			byISBN[b.ISBN] = b
		}

		o := models.CustomerOrder{
			UserID:       userID,
			OrderDate:    now,
			Status:       models.OrderStatusCompleted,
			CardLastFour: pay.LastFour,
			CardExpiry:   pay.Expiry,
			TotalAmount:  decimal.Zero,
		}
		for _, l := range lines {
			b, ok := byISBN[l.ISBN]
			if !ok || l.Quantity > b.QuantityInStock {
				return ErrInsufficientStock
			}
			o.Items = append(o.Items, models.CustomerOrderItem{
				ISBN:      l.ISBN,
				Quantity:  l.Quantity,
				UnitPrice: b.SellingPrice,
			})
			o.TotalAmount = o.TotalAmount.Add(b.SellingPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		for _, l := range lines {
			res := tx.Model(&models.Book{}).
				Where("isbn = ? AND quantity_in_stock >= ?", l.ISBN, l.Quantity).
				Update("quantity_in_stock", gorm.Expr("quantity_in_stock - ?", l.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientStock
			}
		}

		items := o.Items
		o.Items = nil
		if err := tx.Omit(clause.Associations).Create(&o).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = o.ID
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
		o.Items = items

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		order = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
