package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

func (r *GormRepo) ListAuthors(ctx context.Context) ([]models.Author, error) {
	var items []models.Author
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetAuthor(ctx context.Context, id uint) (*models.Author, error) {
	var author models.Author
	if err := r.DB.WithContext(ctx).
		Preload("Books", func(db *gorm.DB) *gorm.DB { return db.Order("books.title") }).
		First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *GormRepo) CreateAuthor(ctx context.Context, a *models.Author) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) UpdateAuthor(ctx context.Context, id uint, name string) (*models.Author, error) {
	res := r.DB.WithContext(ctx).Model(&models.Author{ID: id}).Update("name", name)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Author{ID: id, Name: name}, nil
}

func (r *GormRepo) DeleteAuthor(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author := models.Author{ID: id}
		if err := tx.First(&author).Error; err != nil {
			return err
		}
		if err := tx.Model(&author).Association("Books").Clear(); err != nil {
			return err
		}
		return tx.Delete(&author).Error
	})
}
