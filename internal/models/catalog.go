package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Publisher struct {
	ID      uint    `gorm:"primaryKey"        json:"publisherId"`
	Name    string  `gorm:"size:255;not null" json:"name"`
	Address *string `gorm:"size:500"          json:"address"`
	Phone   *string `gorm:"size:30"           json:"phone"`
	Books   []Book  `json:"books,omitempty"`
}

type Category struct {
	ID    uint   `gorm:"primaryKey"                   json:"categoryId"`
	Name  string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Books []Book `json:"books,omitempty"`
}

type Author struct {
	ID    uint   `gorm:"primaryKey"        json:"authorId"`
	Name  string `gorm:"size:255;not null" json:"name"`
	Books []Book `gorm:"many2many:book_authors" json:"books,omitempty"`
}

type Book struct {
	ISBN             string          `gorm:"primaryKey;size:20"                        json:"isbn"`
	Title            string          `gorm:"size:255;not null;index"                   json:"title"`
	PublisherID      uint            `gorm:"not null;index"                            json:"publisherId"`
	Publisher        *Publisher      `json:"publisher,omitempty"`
	PublicationYear  int             `gorm:"not null"                                  json:"publicationYear"`
	SellingPrice     decimal.Decimal `gorm:"type:numeric(10,2);not null"               json:"sellingPrice"`
	CategoryID       uint            `gorm:"not null;index"                            json:"categoryId"`
	Category         *Category       `json:"category,omitempty"`
	QuantityInStock  int             `gorm:"not null;check:quantity_in_stock >= 0"     json:"quantityInStock"`
	ReorderThreshold int             `gorm:"not null;check:reorder_threshold >= 0"     json:"reorderThreshold"`
	Authors          []Author        `gorm:"many2many:book_authors"                    json:"authors,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (b *Book) InStock() bool { return b.QuantityInStock > 0 }

func (b *Book) BelowThreshold() bool { return b.QuantityInStock < b.ReorderThreshold }
