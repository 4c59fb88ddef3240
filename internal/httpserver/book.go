package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/internal/validation"
)

type BookHTTP struct {
	Svc *service.BookService
}

func bookResponses(books []models.Book) []transport.BookResponse {
	out := make([]transport.BookResponse, 0, len(books))
	for i := range books {
		out = append(out, transport.NewBookResponse(&books[i]))
	}
	return out
}

func (h *BookHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "books.list").Logger()

	page, offset, limit := pageParams(c)
	f := transport.BookFilter{
		Query:     strings.TrimSpace(c.QueryParam("q")),
		Category:  strings.TrimSpace(c.QueryParam("category")),
		Author:    strings.TrimSpace(c.QueryParam("author")),
		Publisher: strings.TrimSpace(c.QueryParam("publisher")),
	}

	total, books, err := h.Svc.List(ctx, f, offset, limit)
	if err != nil {
		return respond(&l, "list_books_error", err)
	}
	return pageJSON(c, page, limit, total, bookResponses(books))
}

func (h *BookHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "books.search").Logger()

	page, offset, limit := pageParams(c)
	total, books, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return respond(&l, "search_books_error", err)
	}
	return pageJSON(c, page, limit, total, bookResponses(books))
}

func (h *BookHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "books.get").Logger()

	b, err := h.Svc.Get(ctx, c.Param("isbn"))
	if err != nil {
		return respond(&l, "get_book_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewBookResponse(b))
}

func (h *BookHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "books.create").Logger()

	var req transport.CreateBookRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "create_book_error", err)
	}

	b, err := h.Svc.Create(ctx, req)
	if err != nil {
		return respond(&l, "create_book_error", err)
	}

	l.Info().Str("isbn", b.ISBN).Msg("create_book_success")
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Book created successfully",
		"isbn":    b.ISBN,
		"book":    transport.NewBookResponse(b),
	})
}

func (h *BookHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "books.update").Logger()

	var req transport.UpdateBookRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "update_book_error", err)
	}

	b, err := h.Svc.Update(ctx, c.Param("isbn"), req)
	if err != nil {
		return respond(&l, "update_book_error", err)
	}

	l.Info().Str("isbn", b.ISBN).Msg("update_book_success")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Book updated successfully",
		"isbn":    b.ISBN,
		"book":    transport.NewBookResponse(b),
	})
}

func (h *BookHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "books.delete").Logger()

	isbn := c.Param("isbn")
	if err := h.Svc.Delete(ctx, isbn); err != nil {
		return respond(&l, "delete_book_error", err)
	}

	l.Info().Str("isbn", isbn).Msg("delete_book_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "Book deleted successfully"})
}
