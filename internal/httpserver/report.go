package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/util"
)

type ReportHTTP struct {
	Svc *service.ReportService
}

func (h *ReportHTTP) PreviousMonthSales(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "reports.previous_month").Logger()

	r, err := h.Svc.PreviousMonthSales(ctx)
	if err != nil {
		return respond(&l, "sales_report_error", err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReportHTTP) SalesByDate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "reports.by_date").Logger()

	r, err := h.Svc.SalesByDate(ctx, c.QueryParam("date"))
	if err != nil {
		return respond(&l, "sales_report_error", err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReportHTTP) TopCustomers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "reports.top_customers").Logger()

	months := util.ParseIntDefault(c.QueryParam("months"), service.DefaultReportMonths)
	top := util.ParseIntDefault(c.QueryParam("top"), service.DefaultTopCustomers)
	r, err := h.Svc.TopCustomers(ctx, months, top)
	if err != nil {
		return respond(&l, "top_customers_error", err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReportHTTP) TopBooks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "reports.top_books").Logger()

	months := util.ParseIntDefault(c.QueryParam("months"), service.DefaultReportMonths)
	top := util.ParseIntDefault(c.QueryParam("top"), service.DefaultTopBooks)
	r, err := h.Svc.TopBooks(ctx, months, top)
	if err != nil {
		return respond(&l, "top_books_error", err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReportHTTP) BookReorders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "reports.book_reorders").Logger()

	r, err := h.Svc.BookReorders(ctx, c.Param("isbn"))
	if err != nil {
		return respond(&l, "book_reorders_error", err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReportHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "reports.dashboard").Logger()

	r, err := h.Svc.Dashboard(ctx)
	if err != nil {
		return respond(&l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, r)
}
