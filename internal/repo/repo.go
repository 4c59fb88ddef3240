package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExist   = errors.New("username or email already exists")
	ErrTokenInvalid       = errors.New("refresh token expired or unknown")
	ErrTokenReused        = errors.New("refresh token already revoked")
	ErrMissingReference   = errors.New("referenced row does not exist")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCartNotFound       = errors.New("shopping cart not found")
	ErrCartEmpty          = errors.New("shopping cart is empty")
	ErrNotPending         = errors.New("publisher order not found or not pending")
	ErrHasBooks           = errors.New("publisher still has books")
	ErrHasOrders          = errors.New("publisher still has publisher orders")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
