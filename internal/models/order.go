package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustomerOrder struct {
	ID           uint                `gorm:"primaryKey"                    json:"orderId"`
	UserID       uint                `gorm:"not null;index"                json:"userId"`
	User         *User               `json:"user,omitempty"`
	OrderDate    time.Time           `gorm:"not null;index"                json:"orderDate"`
	TotalAmount  decimal.Decimal     `gorm:"type:numeric(10,2);not null"   json:"totalAmount"`
	Status       string              `gorm:"size:20;not null"              json:"status"`
	CardLastFour string              `gorm:"size:4;not null"               json:"cardLastFour"`
	CardExpiry   time.Time           `gorm:"not null"                      json:"cardExpiry"`
	Items        []CustomerOrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type CustomerOrderItem struct {
	ID        uint            `gorm:"primaryKey"                      json:"orderItemId"`
	OrderID   uint            `gorm:"not null;index"                  json:"orderId"`
	ISBN      string          `gorm:"size:20;not null;index"          json:"isbn"`
	Book      *Book           `gorm:"foreignKey:ISBN;references:ISBN" json:"book,omitempty"`
	Quantity  int             `gorm:"not null;check:quantity > 0"     json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null"     json:"unitPrice"`
}

type PublisherOrder struct {
	ID          uint                 `gorm:"primaryKey"                  json:"pubOrderId"`
	PublisherID uint                 `gorm:"not null;index"              json:"publisherId"`
	Publisher   *Publisher           `json:"publisher,omitempty"`
	OrderDate   time.Time            `gorm:"not null;index"              json:"orderDate"`
	Status      string               `gorm:"size:20;not null;index"      json:"status"`
	TotalAmount decimal.Decimal      `gorm:"type:numeric(10,2);not null" json:"totalAmount"`
	ConfirmedAt *time.Time           `json:"confirmedAt"`
	Items       []PublisherOrderItem `gorm:"foreignKey:PublisherOrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

type PublisherOrderItem struct {
	ID               uint            `gorm:"primaryKey"                      json:"pubOrderItemId"`
	PublisherOrderID uint            `gorm:"not null;index"                  json:"pubOrderId"`
	ISBN             string          `gorm:"size:20;not null;index"          json:"isbn"`
	Book             *Book           `gorm:"foreignKey:ISBN;references:ISBN" json:"book,omitempty"`
	Quantity         int             `gorm:"not null;check:quantity > 0"     json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(10,2);not null"     json:"unitPrice"`
}

func (o *PublisherOrder) IsPending() bool { return o.Status == PublisherOrderPending }
