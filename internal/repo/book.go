package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func (r *GormRepo) filteredBooks(ctx context.Context, f transport.BookFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Book{})

	if f.Query != "" {
		p := likePattern(f.Query)
		q = q.Where("(LOWER(books.title) LIKE ? OR LOWER(books.isbn) LIKE ?)", p, p)
	}
	if f.Category != "" {
		q = q.Where("books.category_id IN (?)",
			r.DB.Model(&models.Category{}).Select("id").Where("name = ?", f.Category))
	}
	if f.Publisher != "" {
		q = q.Where("books.publisher_id IN (?)",
			r.DB.Model(&models.Publisher{}).Select("id").Where("LOWER(name) LIKE ?", likePattern(f.Publisher)))
	}
	if f.Author != "" {
		q = q.Where("books.isbn IN (?)",
			r.DB.Table("book_authors").
				Select("book_authors.book_isbn").
				Joins("JOIN authors ON authors.id = book_authors.author_id").
				Where("LOWER(authors.name) LIKE ?", likePattern(f.Author)))
	}
	return q
}

func (r *GormRepo) ListBooks(ctx context.Context, f transport.BookFilter, offset, limit int) (int64, []models.Book, error) {
	var total int64
	if err := r.filteredBooks(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Book, 0, limit)
	if err := r.filteredBooks(ctx, f).
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("authors.name") }).
		Preload("Category").
		Preload("Publisher").
		Order("books.title ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetBook(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	if err := r.DB.WithContext(ctx).
		Preload("Authors", func(db *gorm.DB) *gorm.DB { return db.Order("authors.name") }).
		Preload("Category").
		Preload("Publisher").
		Where("isbn = ?", isbn).
		First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBooksByISBN returns the books in the order of isbns, skipping unknown ones.
func (r *GormRepo) GetBooksByISBN(ctx context.Context, isbns []string) ([]models.Book, error) {
	if len(isbns) == 0 {
		return []models.Book{}, nil
	}

	var found []models.Book
	if err := r.DB.WithContext(ctx).
		Preload("Authors").
		Preload("Category").
		Preload("Publisher").
		Where("isbn IN ?", isbns).
		Find(&found).Error; err != nil {
		return nil, err
	}

	byISBN := make(map[string]models.Book, len(found))
	for _, b := range found {
		byISBN[b.ISBN] = b
	}
	out := make([]models.Book, 0, len(found))
	for _, isbn := range isbns {
		if b, ok := byISBN[isbn]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func checkRefs(tx *gorm.DB, publisherID, categoryID *uint, authorIDs []uint) error {
	if publisherID != nil {
		var n int64
		if err := tx.Model(&models.Publisher{}).Where("id = ?", *publisherID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errors.Join(ErrMissingReference, errors.New("publisher not found"))
		}
	}
	if categoryID != nil {
		var n int64
		if err := tx.Model(&models.Category{}).Where("id = ?", *categoryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errors.Join(ErrMissingReference, errors.New("category not found"))
		}
	}
	return nil
}

func loadAuthors(tx *gorm.DB, ids []uint) ([]models.Author, error) {
	if len(ids) == 0 {
		return []models.Author{}, nil
	}
	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	var authors []models.Author
	if err := tx.Where("id IN ?", ids).Find(&authors).Error; err != nil {
		return nil, err
	}
	if len(authors) != len(unique) {
		return nil, errors.Join(ErrMissingReference, errors.New("author not found"))
	}
	return authors, nil
}

func (r *GormRepo) CreateBook(ctx context.Context, book *models.Book, authorIDs []uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, &book.PublisherID, &book.CategoryID, nil); err != nil {
			return err
		}
		authors, err := loadAuthors(tx, authorIDs)
		if err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
			return err
		}
		if len(authors) > 0 {
			if err := tx.Model(book).Association("Authors").Append(authors); err != nil {
				return err
			}
		}
		return nil
	})
	return db.TranslateError(err)
}

// UpdateBook applies updates; a non-nil authorIDs replaces the author links.
func (r *GormRepo) UpdateBook(ctx context.Context, isbn string, updates map[string]any, authorIDs []uint) (*models.Book, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("isbn = ?", isbn).First(&book).Error; err != nil {
			return err
		}

		var pubID, catID *uint
		if v, ok := updates["publisher_id"].(uint); ok {
			pubID = &v
		}
		if v, ok := updates["category_id"].(uint); ok {
			catID = &v
		}
		if err := checkRefs(tx, pubID, catID, nil); err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&book).Omit(clause.Associations).Updates(updates).Error; err != nil {
				return err
			}
		}

		if authorIDs != nil {
			authors, err := loadAuthors(tx, authorIDs)
			if err != nil {
				return err
			}
			assoc := tx.Model(&book).Association("Authors")
			if len(authors) == 0 {
				if err := assoc.Clear(); err != nil {
					return err
				}
			} else if err := assoc.Replace(authors); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, db.TranslateError(err)
	}
	return r.GetBook(ctx, isbn)
}

func (r *GormRepo) DeleteBook(ctx context.Context, isbn string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		if err := tx.Where("isbn = ?", isbn).First(&book).Error; err != nil {
			return err
		}
		if err := tx.Model(&book).Association("Authors").Clear(); err != nil {
			return err
		}
		if err := tx.Where("isbn = ?", isbn).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&book).Error
	})
	return db.TranslateError(err)
}
