package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

var DefaultCategories = []string{"Science", "Art", "Religion", "History", "Geography"}

func Seed(ctx context.Context, db *gorm.DB) error {
	for _, name := range DefaultCategories {
		c := models.Category{Name: name}
		if err := db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&c).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
	}
	return nil
}
