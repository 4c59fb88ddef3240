package transport

type PublisherOrderItemRequest struct {
	ISBN     string `json:"isbn"     validate:"required,max=20"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

type CreatePublisherOrderRequest struct {
	PublisherID uint                        `json:"publisherId" validate:"required"`
	Items       []PublisherOrderItemRequest `json:"items"       validate:"required,min=1,dive"`
}
