package transport

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/validation"
)

type CreateBookRequest struct {
	ISBN             string           `json:"isbn"             validate:"required,max=20"`
	Title            string           `json:"title"            validate:"required,max=255"`
	PublisherID      uint             `json:"publisherId"      validate:"required"`
	PublicationYear  int              `json:"publicationYear"  validate:"required,gte=1000"`
	SellingPrice     *decimal.Decimal `json:"sellingPrice"     validate:"required"`
	CategoryID       uint             `json:"categoryId"       validate:"required"`
	QuantityInStock  *int             `json:"quantityInStock"  validate:"omitempty,gte=0"`
	ReorderThreshold *int             `json:"reorderThreshold" validate:"omitempty,gte=0"`
	AuthorIDs        []uint           `json:"authorIds"        validate:"omitempty,dive,gt=0"`
}

func (r *CreateBookRequest) Validate() error {
	var errs validation.CustomValidationErrors
	if maxYear := time.Now().Year() + 1; r.PublicationYear > maxYear {
		errs = append(errs, validation.FieldError{Field: "publicationYear", Error: fmt.Sprintf("must not exceed %d", maxYear)})
	}
	if r.SellingPrice != nil && r.SellingPrice.IsNegative() {
		errs = append(errs, validation.FieldError{Field: "sellingPrice", Error: "must be greater than or equal to 0"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateBookRequest struct {
	Title            *string          `json:"title"            validate:"omitempty,min=1,max=255"`
	PublisherID      *uint            `json:"publisherId"      validate:"omitempty,gt=0"`
	PublicationYear  *int             `json:"publicationYear"  validate:"omitempty,gte=1000"`
	SellingPrice     *decimal.Decimal `json:"sellingPrice"`
	CategoryID       *uint            `json:"categoryId"       validate:"omitempty,gt=0"`
	QuantityInStock  *int             `json:"quantityInStock"  validate:"omitempty,gte=0"`
	ReorderThreshold *int             `json:"reorderThreshold" validate:"omitempty,gte=0"`
	AuthorIDs        []uint           `json:"authorIds"        validate:"omitempty,dive,gt=0"`
}

func (r *UpdateBookRequest) Validate() error {
	var errs validation.CustomValidationErrors
	if maxYear := time.Now().Year() + 1; r.PublicationYear != nil && *r.PublicationYear > maxYear {
		errs = append(errs, validation.FieldError{Field: "publicationYear", Error: fmt.Sprintf("must not exceed %d", maxYear)})
	}
	if r.SellingPrice != nil && r.SellingPrice.IsNegative() {
		errs = append(errs, validation.FieldError{Field: "sellingPrice", Error: "must be greater than or equal to 0"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *UpdateBookRequest) Empty() bool {
	return r.Title == nil && r.PublisherID == nil && r.PublicationYear == nil &&
		r.SellingPrice == nil && r.CategoryID == nil && r.QuantityInStock == nil &&
		r.ReorderThreshold == nil && r.AuthorIDs == nil
}

type BookFilter struct {
	Query     string
	Category  string
	Author    string
	Publisher string
}

type AuthorRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type CreatePublisherRequest struct {
	Name    string  `json:"name"    validate:"required,max=255"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Phone   *string `json:"phone"   validate:"omitempty,max=30"`
}

type UpdatePublisherRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=1,max=255"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Phone   *string `json:"phone"   validate:"omitempty,max=30"`
}

func (r *UpdatePublisherRequest) Empty() bool {
	return r.Name == nil && r.Address == nil && r.Phone == nil
}

type BookResponse struct {
	*models.Book
	InStock bool `json:"inStock"`
}

func NewBookResponse(b *models.Book) BookResponse {
	return BookResponse{Book: b, InStock: b.InStock()}
}
