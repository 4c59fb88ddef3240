package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

// CatalogService covers authors, publishers and categories.
type CatalogService struct {
	Repo *repo.GormRepo
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(ErrNotFound, msg)
	}
	return err
}

func (s *CatalogService) ListAuthors(ctx context.Context) ([]models.Author, error) {
	return s.Repo.ListAuthors(ctx)
}

func (s *CatalogService) GetAuthor(ctx context.Context, id uint) (*models.Author, error) {
	a, err := s.Repo.GetAuthor(ctx, id)
	if err != nil {
		return nil, notFound(err, "Author not found")
	}
	return a, nil
}

func (s *CatalogService) CreateAuthor(ctx context.Context, req transport.AuthorRequest) (*models.Author, error) {
	a := &models.Author{Name: req.Name}
	if err := s.Repo.CreateAuthor(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *CatalogService) UpdateAuthor(ctx context.Context, id uint, req transport.AuthorRequest) (*models.Author, error) {
	a, err := s.Repo.UpdateAuthor(ctx, id, req.Name)
	if err != nil {
		return nil, notFound(err, "Author not found")
	}
	return a, nil
}

func (s *CatalogService) DeleteAuthor(ctx context.Context, id uint) error {
	return notFound(s.Repo.DeleteAuthor(ctx, id), "Author not found")
}

func (s *CatalogService) ListPublishers(ctx context.Context) ([]models.Publisher, error) {
	return s.Repo.ListPublishers(ctx)
}

func (s *CatalogService) GetPublisher(ctx context.Context, id uint) (*models.Publisher, error) {
	p, err := s.Repo.GetPublisher(ctx, id)
	if err != nil {
		return nil, notFound(err, "Publisher not found")
	}
	return p, nil
}

func (s *CatalogService) CreatePublisher(ctx context.Context, req transport.CreatePublisherRequest) (*models.Publisher, error) {
	p := &models.Publisher{Name: req.Name, Address: req.Address, Phone: req.Phone}
	if err := s.Repo.CreatePublisher(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) UpdatePublisher(ctx context.Context, id uint, req transport.UpdatePublisherRequest) (*models.Publisher, error) {
	if req.Empty() {
		return nil, fail(ErrValidation, "No fields to update")
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}

	p, err := s.Repo.UpdatePublisher(ctx, id, updates)
	if err != nil {
		return nil, notFound(err, "Publisher not found")
	}
	return p, nil
}

func (s *CatalogService) DeletePublisher(ctx context.Context, id uint) error {
	err := s.Repo.DeletePublisher(ctx, id)
	switch {
	case errors.Is(err, repo.ErrHasBooks):
		return fail(ErrConflict, "Cannot delete publisher with existing books")
	case errors.Is(err, repo.ErrHasOrders), errors.Is(err, db.ErrForeignKey):
		return fail(ErrConflict, "Cannot delete publisher with existing orders")
	}
	return notFound(err, "Publisher not found")
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, "Category not found")
	}
	return c, nil
}
