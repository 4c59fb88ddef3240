package models

import "time"

type ShoppingCart struct {
	ID        uint       `gorm:"primaryKey"          json:"cartId"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"userId"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type CartItem struct {
	ID       uint      `gorm:"primaryKey"                                json:"cartItemId"`
	CartID   uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_isbn" json:"cartId"`
	ISBN     string    `gorm:"size:20;not null;uniqueIndex:idx_cart_items_cart_isbn" json:"isbn"`
	Book     *Book     `gorm:"foreignKey:ISBN;references:ISBN;constraint:OnDelete:CASCADE" json:"book,omitempty"`
	Quantity int       `gorm:"not null;check:quantity > 0"                json:"quantity"`
	AddedAt  time.Time `gorm:"autoCreateTime"                             json:"addedAt"`
}
