package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/internal/validation"
)

// CatalogHTTP serves authors, publishers and categories.
type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListAuthors(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "authors.list").Logger()

	authors, err := h.Svc.ListAuthors(ctx)
	if err != nil {
		return respond(&l, "list_authors_error", err)
	}
	return c.JSON(http.StatusOK, authors)
}

func (h *CatalogHTTP) GetAuthor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "authors.get").Logger()

	id, err := parseID(c, "id", "Invalid author id")
	if err != nil {
		return respond(&l, "get_author_error", err)
	}
	a, err := h.Svc.GetAuthor(ctx, id)
	if err != nil {
		return respond(&l, "get_author_error", err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *CatalogHTTP) CreateAuthor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "authors.create").Logger()

	var req transport.AuthorRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "create_author_error", err)
	}
	a, err := h.Svc.CreateAuthor(ctx, req)
	if err != nil {
		return respond(&l, "create_author_error", err)
	}

	l.Info().Uint("author_id", a.ID).Msg("create_author_success")
	return c.JSON(http.StatusCreated, echo.Map{"message": "Author created successfully", "author": a})
}

func (h *CatalogHTTP) UpdateAuthor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "authors.update").Logger()

	id, err := parseID(c, "id", "Invalid author id")
	if err != nil {
		return respond(&l, "update_author_error", err)
	}
	var req transport.AuthorRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "update_author_error", err)
	}
	a, err := h.Svc.UpdateAuthor(ctx, id, req)
	if err != nil {
		return respond(&l, "update_author_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Author updated successfully", "author": a})
}

func (h *CatalogHTTP) DeleteAuthor(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "authors.delete").Logger()

	id, err := parseID(c, "id", "Invalid author id")
	if err != nil {
		return respond(&l, "delete_author_error", err)
	}
	if err := h.Svc.DeleteAuthor(ctx, id); err != nil {
		return respond(&l, "delete_author_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Author deleted successfully"})
}

func (h *CatalogHTTP) ListPublishers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publishers.list").Logger()

	pubs, err := h.Svc.ListPublishers(ctx)
	if err != nil {
		return respond(&l, "list_publishers_error", err)
	}
	return c.JSON(http.StatusOK, pubs)
}

func (h *CatalogHTTP) GetPublisher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publishers.get").Logger()

	id, err := parseID(c, "id", "Invalid publisher id")
	if err != nil {
		return respond(&l, "get_publisher_error", err)
	}
	p, err := h.Svc.GetPublisher(ctx, id)
	if err != nil {
		return respond(&l, "get_publisher_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) CreatePublisher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publishers.create").Logger()

	var req transport.CreatePublisherRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "create_publisher_error", err)
	}
	p, err := h.Svc.CreatePublisher(ctx, req)
	if err != nil {
		return respond(&l, "create_publisher_error", err)
	}

	l.Info().Uint("publisher_id", p.ID).Msg("create_publisher_success")
	return c.JSON(http.StatusCreated, echo.Map{"message": "Publisher created successfully", "publisher": p})
}

func (h *CatalogHTTP) UpdatePublisher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publishers.update").Logger()

	id, err := parseID(c, "id", "Invalid publisher id")
	if err != nil {
		return respond(&l, "update_publisher_error", err)
	}
	var req transport.UpdatePublisherRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return respond(&l, "update_publisher_error", err)
	}
	p, err := h.Svc.UpdatePublisher(ctx, id, req)
	if err != nil {
		return respond(&l, "update_publisher_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Publisher updated successfully", "publisher": p})
}

func (h *CatalogHTTP) DeletePublisher(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "publishers.delete").Logger()

	id, err := parseID(c, "id", "Invalid publisher id")
	if err != nil {
		return respond(&l, "delete_publisher_error", err)
	}
	if err := h.Svc.DeletePublisher(ctx, id); err != nil {
		return respond(&l, "delete_publisher_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Publisher deleted successfully"})
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "categories.list").Logger()

	cats, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return respond(&l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With().Str("handler", "categories.get").Logger()

	id, err := parseID(c, "id", "Invalid category id")
	if err != nil {
		return respond(&l, "get_category_error", err)
	}
	cat, err := h.Svc.GetCategory(ctx, id)
	if err != nil {
		return respond(&l, "get_category_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}
