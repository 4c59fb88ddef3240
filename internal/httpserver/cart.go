package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/internal/validation"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "cart.get").Logger()

	view, err := h.Svc.Get(ctx, auth.UserID(c))
	if err != nil {
		return respond(&l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "cart.add_item").Logger()

	var req transport.AddCartItemRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "add_cart_item_error", err)
	}

	item, created, err := h.Svc.AddItem(ctx, auth.UserID(c), req)
	if err != nil {
		return respond(&l, "add_cart_item_error", err)
	}

	if created {
		return c.JSON(http.StatusCreated, echo.Map{"message": "Item added to cart", "item": item})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart updated", "item": item})
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "cart.update_item").Logger()

	itemID, err := parseID(c, "itemId", "Invalid cart item id")
	if err != nil {
		return respond(&l, "update_cart_item_error", err)
	}
	var req transport.UpdateCartItemRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "update_cart_item_error", err)
	}

	item, err := h.Svc.UpdateItem(ctx, auth.UserID(c), itemID, req)
	if err != nil {
		return respond(&l, "update_cart_item_error", err)
	}
	if item == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "Item removed from cart"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart updated", "item": item})
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "cart.remove_item").Logger()

	itemID, err := parseID(c, "itemId", "Invalid cart item id")
	if err != nil {
		return respond(&l, "remove_cart_item_error", err)
	}
	if err := h.Svc.RemoveItem(ctx, auth.UserID(c), itemID); err != nil {
		return respond(&l, "remove_cart_item_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Item removed from cart"})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "cart.clear").Logger()

	if err := h.Svc.Clear(ctx, auth.UserID(c)); err != nil {
		return respond(&l, "clear_cart_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart cleared"})
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "cart.checkout").Logger()

	var req transport.CheckoutRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "checkout_error", err)
	}

	order, err := h.Svc.Checkout(ctx, auth.UserID(c), req)
	if err != nil {
		return respond(&l, "checkout_error", err)
	}

	l.Info().Uint("order_id", order.ID).Msg("checkout_success")
	return c.JSON(http.StatusOK, transport.CheckoutResponse{
		Message:     "Checkout completed",
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
	})
}
