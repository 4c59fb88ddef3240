package service

import (
	"context"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
)

type OrderService struct {
	Repo *repo.GormRepo
}

// Viewer is the authenticated caller; admins see every order.
type Viewer struct {
	UserID uint
	Role   string
}

func (v Viewer) scope() uint {
	if v.Role == models.RoleAdmin {
		return 0
	}
	return v.UserID
}

func (s *OrderService) List(ctx context.Context, v Viewer, offset, limit int) (int64, []models.CustomerOrder, error) {
	return s.Repo.ListOrders(ctx, v.scope(), offset, limit)
}

func (s *OrderService) Get(ctx context.Context, v Viewer, id uint) (*models.CustomerOrder, error) {
	o, err := s.Repo.GetOrder(ctx, id, v.scope())
	if err != nil {
		return nil, notFound(err, "Order not found")
	}
	return o, nil
}
