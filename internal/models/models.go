package models

const (
	RoleAdmin    = "Admin"
	RoleCustomer = "Customer"
)

const (
	OrderStatusCompleted = "Completed"

	PublisherOrderPending   = "Pending"
	PublisherOrderConfirmed = "Confirmed"
	PublisherOrderCancelled = "Cancelled"
)

// All lists every persisted model in dependency order.
func All() []any {
	return []any{
		&User{},
		&Publisher{},
		&Category{},
		&Author{},
		&Book{},
		&ShoppingCart{},
		&CartItem{},
		&CustomerOrder{},
		&CustomerOrderItem{},
		&PublisherOrder{},
		&PublisherOrderItem{},
		&RefreshToken{},
	}
}
