package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/internal/validation"
)

const expiryLayout = "2006-01-02"

type CartService struct {
	Repo    *repo.GormRepo
	Reorder *ReorderService
	Events  events.Publisher
	Now     func() time.Time
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CartService) Get(ctx context.Context, userID uint) (*transport.CartView, error) {
	cart, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &transport.CartView{CartID: cart.ID, Items: make([]transport.CartLine, 0, len(cart.Items)), Total: decimal.Zero}
	for _, it := range cart.Items {
		line := transport.CartLine{
			CartItemID: it.ID,
			ISBN:       it.ISBN,
			Quantity:   it.Quantity,
			AddedAt:    it.AddedAt,
			Authors:    []string{},
		}
		if it.Book != nil {
			line.Title = it.Book.Title
			line.SellingPrice = it.Book.SellingPrice
			line.QuantityInStock = it.Book.QuantityInStock
			for _, a := range it.Book.Authors {
				line.Authors = append(line.Authors, a.Name)
			}
		}
		line.Subtotal = lineTotal(line.SellingPrice, it.Quantity)
		view.Total = view.Total.Add(line.Subtotal)
		view.ItemCount += it.Quantity
		view.Items = append(view.Items, line)
	}
	return view, nil
}

// AddItem reports whether a new cart line was created or an existing one grew.
func (s *CartService) AddItem(ctx context.Context, userID uint, req transport.AddCartItemRequest) (*models.CartItem, bool, error) {
	item, created, err := s.Repo.AddToCart(ctx, userID, req.ISBN, req.Quantity)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, fail(ErrNotFound, "Book not found")
	case errors.Is(err, repo.ErrInsufficientStock):
		return nil, false, fail(ErrValidation, "Insufficient stock")
	case err != nil:
		return nil, false, err
	}
	return item, created, nil
}

// UpdateItem returns a nil item when quantity 0 removed the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, req transport.UpdateCartItemRequest) (*models.CartItem, error) {
	item, err := s.Repo.UpdateCartItem(ctx, userID, itemID, *req.Quantity)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fail(ErrNotFound, "Cart item not found")
	case errors.Is(err, repo.ErrInsufficientStock):
		return nil, fail(ErrValidation, "Insufficient stock")
	}
	return item, err
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
	return notFound(s.Repo.RemoveCartItem(ctx, userID, itemID), "Cart item not found")
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.Repo.ClearCart(ctx, userID)
}

// Checkout validates the card and converts the cart into an order.
func (s *CartService) Checkout(ctx context.Context, userID uint, req transport.CheckoutRequest) (*models.CustomerOrder, error) {
	l := logging.FromContext(ctx).With().Str("svc", "cart.checkout").Uint("user_id", userID).Logger()

	card := strings.NewReplacer(" ", "", "-", "").Replace(req.CardNumber)
	if err := validation.Validator().Var(card, "required,credit_card"); err != nil {
		return nil, fail(ErrValidation, "Invalid card number")
	}

	expiry, err := time.Parse(expiryLayout, req.Expiry)
	if err != nil {
		return nil, fail(ErrValidation, "Invalid expiry date")
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if expiry.Before(today) {
		return nil, fail(ErrValidation, "Credit card has expired")
	}

	order, err := s.Repo.Checkout(ctx, userID, repo.Payment{LastFour: card[len(card)-4:], Expiry: expiry}, now)
	switch {
	case errors.Is(err, repo.ErrCartNotFound):
		return nil, fail(ErrValidation, "Shopping cart not found")
	case errors.Is(err, repo.ErrCartEmpty):
		return nil, fail(ErrValidation, "Shopping cart is empty")
	case errors.Is(err, repo.ErrInsufficientStock):
		return nil, fail(ErrValidation, "Insufficient stock for one or more items")
	case err != nil:
		return nil, err
	}
	l.Info().Uint("order_id", order.ID).Str("total", order.TotalAmount.StringFixed(2)).Msg("order_placed")

	isbns := make([]string, 0, len(order.Items))
	items := make([]map[string]any, 0, len(order.Items))
	for _, it := range order.Items {
		isbns = append(isbns, it.ISBN)
		items = append(items, map[string]any{"isbn": it.ISBN, "quantity": it.Quantity, "unitPrice": it.UnitPrice})
	}
	if s.Reorder != nil {
		if _, err := s.Reorder.Reorder(ctx, isbns); err != nil {
			l.Error().Err(err).Msg("reorder_failed")
		}
	}
	publish(ctx, s.Events, &l, events.TopicOrders, strconv.FormatUint(uint64(order.ID), 10),
		events.New(events.OrderPlaced, map[string]any{
			"orderId":     order.ID,
			"userId":      userID,
			"totalAmount": order.TotalAmount,
			"items":       items,
		}))
	return order, nil
}
