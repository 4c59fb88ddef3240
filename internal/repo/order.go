package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

// ListOrders pages through customer orders, newest first. A zero userID lists
// every customer's orders.
func (r *GormRepo) ListOrders(ctx context.Context, userID uint, offset, limit int) (int64, []models.CustomerOrder, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if userID != 0 {
			return db.Where("user_id = ?", userID)
		}
		return db
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.CustomerOrder{}).Scopes(scope).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.CustomerOrder, 0, limit)
	if err := r.DB.WithContext(ctx).
		Scopes(scope).
		Preload("User").
		Order("order_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// GetOrder loads an order with its lines. A non-zero userID restricts the
// lookup to that user's orders.
func (r *GormRepo) GetOrder(ctx context.Context, id, userID uint) (*models.CustomerOrder, error) {
	q := r.DB.WithContext(ctx).
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Book").
		Where("id = ?", id)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}

	var o models.CustomerOrder
	if err := q.First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}
