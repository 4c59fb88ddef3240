package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/hash"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "User not found")
	}
	return u, err
}

func (s *UserService) UpdateProfile(ctx context.Context, id uint, req transport.UpdateProfileRequest) (*models.User, error) {
	if req.Empty() {
		return nil, fail(ErrValidation, "No fields to update")
	}

	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.ShippingAddress != nil {
		updates["shipping_address"] = *req.ShippingAddress
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		taken, err := s.Repo.EmailTaken(ctx, email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fail(ErrConflict, "Email already in use")
		}
		updates["email"] = email
	}
	if req.NewPassword != nil {
		if req.CurrentPassword == nil || !hash.CheckPassword(u.PasswordHash, *req.CurrentPassword) {
			return nil, fail(ErrValidation, "Current password is incorrect")
		}
		h, err := hash.HashPassword(*req.NewPassword)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = h
	}

	updated, err := s.Repo.UpdateUser(ctx, id, updates)
	if errors.Is(err, repo.ErrUserAlreadyExist) {
		return nil, fail(ErrConflict, "Email already in use")
	}
	return updated, err
}
