package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) ListPublishers(ctx context.Context) ([]models.Publisher, error) {
	var items []models.Publisher
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetPublisher(ctx context.Context, id uint) (*models.Publisher, error) {
	var p models.Publisher
	if err := r.DB.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB { return db.Order("books.title") }).
		First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) CreatePublisher(ctx context.Context, p *models.Publisher) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *GormRepo) UpdatePublisher(ctx context.Context, id uint, updates map[string]any) (*models.Publisher, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Publisher
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}
		return tx.Model(&p).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	var p models.Publisher
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) DeletePublisher(ctx context.Context, id uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Publisher
		if err := tx.First(&p, id).Error; err != nil {
			return err
		}

		var books int64
		if err := tx.Model(&models.Book{}).Where("publisher_id = ?", id).Count(&books).Error; err != nil {
			return err
		}
		if books > 0 {
			return ErrHasBooks
		}

		var orders int64
		if err := tx.Model(&models.PublisherOrder{}).Where("publisher_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return ErrHasOrders
		}
		return tx.Delete(&p).Error
	})
	return db.TranslateError(err)
}
