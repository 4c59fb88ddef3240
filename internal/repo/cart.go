package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func ensureCart(tx *gorm.DB, userID uint) (*models.ShoppingCart, error) {
	cart := models.ShoppingCart{UserID: userID}
	if err := tx.Where("user_id = ?", userID).FirstOrCreate(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetCart returns the caller's cart with books and authors loaded, creating
// an empty one when the user has none yet.
func (r *GormRepo) GetCart(ctx context.Context, userID uint) (*models.ShoppingCart, error) {
	var cart *models.ShoppingCart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}
		cart = c
		return tx.
			Preload("Book").
			Preload("Book.Authors").
			Where("cart_id = ?", cart.ID).
			Order("added_at ASC, id ASC").
			Find(&cart.Items).Error
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddToCart merges quantity into an existing line for the same book or opens
// a new one. created reports which of the two happened.
func (r *GormRepo) AddToCart(ctx context.Context, userID uint, isbn string, quantity int) (item *models.CartItem, created bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := ensureCart(tx, userID)
		if err != nil {
			return err
		}

		var book models.Book
		if err := tx.Where("isbn = ?", isbn).First(&book).Error; err != nil {
			return err
		}

		var line models.CartItem
		err = tx.Where("cart_id = ? AND isbn = ?", cart.ID, isbn).First(&line).Error
		switch {
		case err == nil:
			if line.Quantity+quantity > book.QuantityInStock {
				return ErrInsufficientStock
			}
			if err := tx.Model(&line).Update("quantity", gorm.Expr("quantity + ?", quantity)).Error; err != nil {
				return err
			}
			line.Quantity += quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			if quantity > book.QuantityInStock {
				return ErrInsufficientStock
			}
			line = models.CartItem{CartID: cart.ID, ISBN: isbn, Quantity: quantity}
			if err := tx.Omit("Book").Create(&line).Error; err != nil {
				return err
			}
			created = true
		default:
			return err
		}

		item = &line
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return item, created, nil
}

func ownedItem(tx *gorm.DB, userID, itemID uint) (*models.CartItem, error) {
	var item models.CartItem
	if err := tx.
		Where("id = ? AND cart_id IN (?)", itemID,
			tx.Model(&models.ShoppingCart{}).Select("id").Where("user_id = ?", userID)).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateCartItem sets the quantity of a line; zero removes it and returns a nil item.
func (r *GormRepo) UpdateCartItem(ctx context.Context, userID, itemID uint, quantity int) (*models.CartItem, error) {
	var out *models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := ownedItem(tx, userID, itemID)
		if err != nil {
			return err
		}

		if quantity == 0 {
			return tx.Delete(item).Error
		}

		var book models.Book
		if err := tx.Where("isbn = ?", item.ISBN).First(&book).Error; err != nil {
			return err
		}
		if quantity > book.QuantityInStock {
			return ErrInsufficientStock
		}
		if err := tx.Model(item).Update("quantity", quantity).Error; err != nil {
			return err
		}
		item.Quantity = quantity
		out = item
		return nil
	})
	return out, err
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, itemID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := ownedItem(tx, userID, itemID)
		if err != nil {
			return err
		}
		return tx.Delete(item).Error
	})
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).
		Where("cart_id IN (?)", r.DB.Model(&models.ShoppingCart{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.CartItem{}).Error
}
