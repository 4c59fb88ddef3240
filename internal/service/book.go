package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

const DefaultReorderThreshold = 10

// BookIndex is the full-text index kept next to the catalog tables.
type BookIndex interface {
	IndexBook(ctx context.Context, b *models.Book) error
	DeleteBook(ctx context.Context, isbn string) error
	Search(ctx context.Context, query string, from, size int) (int64, []string, error)
}

type BookService struct {
	Repo   *repo.GormRepo
	Index  BookIndex
	Events events.Publisher
}

func (s *BookService) List(ctx context.Context, f transport.BookFilter, offset, limit int) (int64, []models.Book, error) {
	return s.Repo.ListBooks(ctx, f, offset, limit)
}

// Search uses the index when one is configured and the database otherwise.
// An unreachable index also falls back to the database.
func (s *BookService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Book, error) {
	l := logging.FromContext(ctx).With().Str("svc", "books.search").Logger()

	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Book{}, nil
	}

	if s.Index != nil {
		total, isbns, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			books, err := s.Repo.GetBooksByISBN(ctx, isbns)
			if err != nil {
				return 0, nil, err
			}
			return total, books, nil
		}
		l.Warn().Err(err).Msg("index_search_failed")
	}
	return s.Repo.ListBooks(ctx, transport.BookFilter{Query: q}, offset, limit)
}

func (s *BookService) Get(ctx context.Context, isbn string) (*models.Book, error) {
	b, err := s.Repo.GetBook(ctx, isbn)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "Book not found")
	}
	return b, err
}

func (s *BookService) Create(ctx context.Context, req transport.CreateBookRequest) (*models.Book, error) {
	b := &models.Book{
		ISBN:             strings.TrimSpace(req.ISBN),
		Title:            req.Title,
		PublisherID:      req.PublisherID,
		PublicationYear:  req.PublicationYear,
		SellingPrice:     req.SellingPrice.Round(2),
		CategoryID:       req.CategoryID,
		ReorderThreshold: DefaultReorderThreshold,
	}
	if req.QuantityInStock != nil {
		b.QuantityInStock = *req.QuantityInStock
	}
	if req.ReorderThreshold != nil {
		b.ReorderThreshold = *req.ReorderThreshold
	}

	if err := s.Repo.CreateBook(ctx, b, req.AuthorIDs); err != nil {
		return nil, catalogError(err, "Book with this ISBN already exists")
	}

	created, err := s.Get(ctx, b.ISBN)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, events.BookCreated, created)
	return created, nil
}

func (s *BookService) Update(ctx context.Context, isbn string, req transport.UpdateBookRequest) (*models.Book, error) {
	if req.Empty() {
		return nil, fail(ErrValidation, "No fields to update")
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.PublisherID != nil {
		updates["publisher_id"] = *req.PublisherID
	}
	if req.PublicationYear != nil {
		updates["publication_year"] = *req.PublicationYear
	}
	if req.SellingPrice != nil {
		updates["selling_price"] = req.SellingPrice.Round(2)
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.QuantityInStock != nil {
		updates["quantity_in_stock"] = *req.QuantityInStock
	}
	if req.ReorderThreshold != nil {
		updates["reorder_threshold"] = *req.ReorderThreshold
	}

	b, err := s.Repo.UpdateBook(ctx, isbn, updates, req.AuthorIDs)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(ErrNotFound, "Book not found")
	}
	if err != nil {
		return nil, catalogError(err, "Book with this ISBN already exists")
	}
	s.afterWrite(ctx, events.BookUpdated, b)
	return b, nil
}

func (s *BookService) Delete(ctx context.Context, isbn string) error {
	l := logging.FromContext(ctx).With().Str("svc", "books.delete").Str("isbn", isbn).Logger()

	err := s.Repo.DeleteBook(ctx, isbn)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(ErrNotFound, "Book not found")
	case errors.Is(err, db.ErrForeignKey):
		return fail(ErrConflict, "Book is referenced by existing orders")
	case err != nil:
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeleteBook(ctx, isbn); err != nil {
			l.Warn().Err(err).Msg("index_delete_failed")
		}
	}
	publish(ctx, s.Events, &l, events.TopicCatalog, isbn, events.New(events.BookDeleted, map[string]string{"isbn": isbn}))
	return nil
}

func (s *BookService) afterWrite(ctx context.Context, typ string, b *models.Book) {
	l := logging.FromContext(ctx).With().Str("svc", "books").Str("isbn", b.ISBN).Logger()

	if s.Index != nil {
		if err := s.Index.IndexBook(ctx, b); err != nil {
			l.Warn().Err(err).Msg("index_book_failed")
		}
	}
	publish(ctx, s.Events, &l, events.TopicCatalog, b.ISBN, events.New(typ, bookEvent(b)))
}

func bookEvent(b *models.Book) map[string]any {
	return map[string]any{
		"isbn":            b.ISBN,
		"title":           b.Title,
		"sellingPrice":    b.SellingPrice,
		"quantityInStock": b.QuantityInStock,
	}
}

// Reindex pushes every book into the index.
func (s *BookService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	const batch = 100
	n := 0
	for offset := 0; ; offset += batch {
		_, books, err := s.Repo.ListBooks(ctx, transport.BookFilter{}, offset, batch)
		if err != nil {
			return n, err
		}
		for i := range books {
			if err := s.Index.IndexBook(ctx, &books[i]); err != nil {
				return n, err
			}
			n++
		}
		if len(books) < batch {
			logging.FromContext(ctx).Info().Int("books", n).Msg("reindex_done")
			return n, nil
		}
	}
}

func catalogError(err error, duplicateMsg string) error {
	switch {
	case errors.Is(err, repo.ErrMissingReference):
		return fail(ErrValidation, missingMessage(err))
	case errors.Is(err, db.ErrDuplicate):
		return fail(ErrConflict, duplicateMsg)
	case errors.Is(err, db.ErrForeignKey):
		return fail(ErrValidation, "Referenced publisher, category or author does not exist")
	case errors.Is(err, db.ErrCheck):
		return fail(ErrValidation, "Value out of range")
	}
	return err
}

// missingMessage extracts the detail joined onto ErrMissingReference.
func missingMessage(err error) string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			if !errors.Is(e, repo.ErrMissingReference) {
				s := e.Error()
				return strings.ToUpper(s[:1]) + s[1:]
			}
		}
	}
	return "Referenced record not found"
}

func lineTotal(price decimal.Decimal, qty int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}
