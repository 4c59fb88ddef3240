package transport

import "github.com/Skotchmaster/bookstore/internal/validation"

type UpdateProfileRequest struct {
	FirstName       *string `json:"firstName"       validate:"omitempty,min=1,max=100"`
	LastName        *string `json:"lastName"        validate:"omitempty,min=1,max=100"`
	Email           *string `json:"email"           validate:"omitempty,email,max=255"`
	Phone           *string `json:"phone"           validate:"omitempty,max=30"`
	ShippingAddress *string `json:"shippingAddress" validate:"omitempty,max=500"`
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"     validate:"omitempty,min=6,max=72"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.NewPassword != nil && (r.CurrentPassword == nil || *r.CurrentPassword == "") {
		return validation.CustomValidationErrors{
			{Field: "currentPassword", Error: "is required to set a new password"},
		}
	}
	return nil
}

func (r *UpdateProfileRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Email == nil &&
		r.Phone == nil && r.ShippingAddress == nil && r.NewPassword == nil
}
