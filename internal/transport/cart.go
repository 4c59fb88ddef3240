package transport

import (
	"time"

	"github.com/shopspring/decimal"
)

type AddCartItemRequest struct {
	ISBN     string `json:"isbn"     validate:"required,max=20"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type CheckoutRequest struct {
	CardNumber string `json:"cardNumber" validate:"required"`
	Expiry     string `json:"expiry"     validate:"required,datetime=2006-01-02"`
}

type CartLine struct {
	CartItemID      uint            `json:"cartItemId"`
	ISBN            string          `json:"isbn"`
	Title           string          `json:"title"`
	SellingPrice    decimal.Decimal `json:"sellingPrice"`
	Quantity        int             `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	QuantityInStock int             `json:"quantityInStock"`
	Authors         []string        `json:"authors"`
	AddedAt         time.Time       `json:"addedAt"`
}

type CartView struct {
	CartID    uint            `json:"cartId"`
	Items     []CartLine      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

type CheckoutResponse struct {
	Message     string          `json:"message"`
	OrderID     uint            `json:"orderId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
