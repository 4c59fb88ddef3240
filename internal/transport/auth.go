package transport

import "github.com/Skotchmaster/bookstore/internal/models"

type SignupRequest struct {
	Username        string  `json:"username"        validate:"required,min=3,max=50"`
	Password        string  `json:"password"        validate:"required,min=6,max=72"`
	FirstName       string  `json:"firstName"       validate:"required,max=100"`
	LastName        string  `json:"lastName"        validate:"required,max=100"`
	Email           string  `json:"email"           validate:"required,email,max=255"`
	Phone           *string `json:"phone"           validate:"omitempty,max=30"`
	ShippingAddress *string `json:"shippingAddress" validate:"omitempty,max=500"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	Message      string       `json:"message,omitempty"`
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}
