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

type OrderHTTP struct {
	Svc *service.OrderService
}

func viewer(c echo.Context) service.Viewer {
	return service.Viewer{UserID: auth.UserID(c), Role: auth.Role(c)}
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "orders.list").Logger()

	page, offset, limit := pageParams(c)
	total, orders, err := h.Svc.List(ctx, viewer(c), offset, limit)
	if err != nil {
		return respond(&l, "list_orders_error", err)
	}
	return pageJSON(c, page, limit, total, orders)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "orders.get").Logger()

	id, err := parseID(c, "id", "Invalid order id")
	if err != nil {
		return respond(&l, "get_order_error", err)
	}
	o, err := h.Svc.Get(ctx, viewer(c), id)
	if err != nil {
		return respond(&l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

type PublisherOrderHTTP struct {
	Svc *service.PublisherOrderService
}

func (h *PublisherOrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publisher_orders.list").Logger()

	page, offset, limit := pageParams(c)
	total, orders, err := h.Svc.List(ctx, c.QueryParam("status"), offset, limit)
	if err != nil {
		return respond(&l, "list_publisher_orders_error", err)
	}
	return pageJSON(c, page, limit, total, orders)
}

func (h *PublisherOrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publisher_orders.get").Logger()

	id, err := parseID(c, "id", "Invalid publisher order id")
	if err != nil {
		return respond(&l, "get_publisher_order_error", err)
	}
	po, err := h.Svc.Get(ctx, id)
	if err != nil {
		return respond(&l, "get_publisher_order_error", err)
	}
	return c.JSON(http.StatusOK, po)
}

func (h *PublisherOrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publisher_orders.create").Logger()

	var req transport.CreatePublisherOrderRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "create_publisher_order_error", err)
	}
	po, err := h.Svc.Create(ctx, req)
	if err != nil {
		return respond(&l, "create_publisher_order_error", err)
	}

	l.Info().Uint("pub_order_id", po.ID).Msg("create_publisher_order_success")
	return c.JSON(http.StatusCreated, echo.Map{"message": "Publisher order created", "order": po})
}

func (h *PublisherOrderHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publisher_orders.confirm").Logger()

	id, err := parseID(c, "id", "Invalid publisher order id")
	if err != nil {
		return respond(&l, "confirm_publisher_order_error", err)
	}
	po, err := h.Svc.Confirm(ctx, id)
	if err != nil {
		return respond(&l, "confirm_publisher_order_error", err)
	}

	l.Info().Uint("pub_order_id", po.ID).Msg("confirm_publisher_order_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Order confirmed successfully", "orderId": po.ID, "order": po})
}

func (h *PublisherOrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publisher_orders.cancel").Logger()

	id, err := parseID(c, "id", "Invalid publisher order id")
	if err != nil {
		return respond(&l, "cancel_publisher_order_error", err)
	}
	po, err := h.Svc.Cancel(ctx, id)
	if err != nil {
		return respond(&l, "cancel_publisher_order_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Order cancelled successfully", "orderId": po.ID, "order": po})
}
