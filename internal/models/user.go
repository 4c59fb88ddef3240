package models

import "time"

type User struct {
	ID              uint      `gorm:"primaryKey"                  json:"userId"`
	Username        string    `gorm:"size:50;uniqueIndex;not null"  json:"username"`
	PasswordHash    string    `gorm:"size:255;not null"             json:"-"`
	FirstName       string    `gorm:"size:100;not null"             json:"firstName"`
	LastName        string    `gorm:"size:100;not null"             json:"lastName"`
	Email           string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone           *string   `gorm:"size:30"                       json:"phone"`
	ShippingAddress *string   `gorm:"size:500"                      json:"shippingAddress"`
	Role            string    `gorm:"size:20;not null;index"        json:"role"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type RefreshToken struct {
	ID        string    `gorm:"primaryKey;size:36"       json:"id"`
	UserID    uint      `gorm:"index;not null"           json:"userId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index"           json:"expiresAt"`
	IsRevoked bool      `gorm:"not null;default:false"   json:"isRevoked"`
	CreatedAt time.Time `json:"createdAt"`
}
