package repo

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type OrderLine struct {
	ISBN     string
	Quantity int
}

// CreatePublisherOrder prices lines at the current selling price and stores a
// Pending order for publisherID.
func (r *GormRepo) CreatePublisherOrder(ctx context.Context, publisherID uint, lines []OrderLine, now time.Time) (*models.PublisherOrder, error) {
	var out *models.PublisherOrder
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRefs(tx, &publisherID, nil, nil); err != nil {
			return err
		}

		isbns := make([]string, 0, len(lines))
		for _, l := range lines {
			isbns = append(isbns, l.ISBN)
		}
		var books []models.Book
		if err := tx.Where("isbn IN ?", isbns).Find(&books).Error; err != nil {
			return err
		}
		price := make(map[string]decimal.Decimal, len(books))
		for _, b := range books {
			price[b.ISBN] = b.SellingPrice
		}

		po := models.PublisherOrder{
			PublisherID: publisherID,
			OrderDate:   now,
			Status:      models.PublisherOrderPending,
			TotalAmount: decimal.Zero,
		}
		items := make([]models.PublisherOrderItem, 0, len(lines))
		for _, l := range lines {
			p, ok := price[l.ISBN]
			if !ok {
				return errors.Join(ErrMissingReference, errors.New("book "+l.ISBN+" not found"))
			}
			items = append(items, models.PublisherOrderItem{ISBN: l.ISBN, Quantity: l.Quantity, UnitPrice: p})
			po.TotalAmount = po.TotalAmount.Add(p.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}

		if err := createPublisherOrder(tx, &po, items); err != nil {
			return err
		}
		out = &po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func createPublisherOrder(tx *gorm.DB, po *models.PublisherOrder, items []models.PublisherOrderItem) error {
	if err := tx.Omit(clause.Associations).Create(po).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].PublisherOrderID = po.ID
	}
	if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
		return err
	}
	po.Items = items
	return nil
}

func (r *GormRepo) ListPublisherOrders(ctx context.Context, status string, offset, limit int) (int64, []models.PublisherOrder, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.PublisherOrder{}).Scopes(scope).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.PublisherOrder, 0, limit)
	if err := r.DB.WithContext(ctx).
		Scopes(scope).
		Preload("Publisher").
		Order("order_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetPublisherOrder(ctx context.Context, id uint) (*models.PublisherOrder, error) {
	var po models.PublisherOrder
	if err := r.DB.WithContext(ctx).
		Preload("Publisher").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Book").
		First(&po, id).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

// ConfirmPublisherOrder moves a Pending order to Confirmed and adds its
// quantities to stock.
func (r *GormRepo) ConfirmPublisherOrder(ctx context.Context, id uint, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po models.PublisherOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&po, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotPending
			}
			return err
		}
		if !po.IsPending() {
			return ErrNotPending
		}

		var items []models.PublisherOrderItem
		if err := tx.Where("publisher_order_id = ?", po.ID).Order("isbn ASC").Find(&items).Error; err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.Model(&models.Book{}).
				Where("isbn = ?", it.ISBN).
				Update("quantity_in_stock", gorm.Expr("quantity_in_stock + ?", it.Quantity)).Error; err != nil {
				return err
			}
		}

		return tx.Model(&po).Updates(map[string]any{
			"status":       models.PublisherOrderConfirmed,
			"confirmed_at": now,
		}).Error
	})
}

func (r *GormRepo) CancelPublisherOrder(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&models.PublisherOrder{}).
		Where("id = ? AND status = ?", id, models.PublisherOrderPending).
		Update("status", models.PublisherOrderCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}

// reorderLockKey serialises concurrent reorder sweeps on postgres.
const reorderLockKey = 0x626f6f6b

// PlaceReorders creates one Pending publisher order per publisher covering
// every book below its reorder threshold that is not already on a Pending
// order. An empty isbns considers the whole catalog.
//
// Candidate books are locked in ISBN order before the pending check runs, so
// a second sweep blocks until the first commits and then sees its items.
func (r *GormRepo) PlaceReorders(ctx context.Context, isbns []string, quantity int, now time.Time) ([]models.PublisherOrder, error) {
	var placed []models.PublisherOrder
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", reorderLockKey).Error; err != nil {
				return err
			}
		}

		q := tx.Model(&models.Book{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("quantity_in_stock < reorder_threshold")
		if len(isbns) > 0 {
			q = q.Where("isbn IN ?", isbns)
		}

		var candidates []models.Book
		if err := q.Order("isbn ASC").Find(&candidates).Error; err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		locked := make([]string, len(candidates))
		for i, b := range candidates {
			locked[i] = b.ISBN
		}
		var onOrder []string
		if err := tx.Table("publisher_order_items").
			Joins("JOIN publisher_orders ON publisher_orders.id = publisher_order_items.publisher_order_id").
			Where("publisher_orders.status = ? AND publisher_order_items.isbn IN ?", models.PublisherOrderPending, locked).
			Pluck("publisher_order_items.isbn", &onOrder).Error; err != nil {
			return err
		}
		skip := make(map[string]struct{}, len(onOrder))
		for _, isbn := range onOrder {
			skip[isbn] = struct{}{}
		}

		books := candidates[:0]
		for _, b := range candidates {
			if _, ok := skip[b.ISBN]; !ok {
				books = append(books, b)
			}
		}
		sort.SliceStable(books, func(i, j int) bool {
			if books[i].PublisherID != books[j].PublisherID {
				return books[i].PublisherID < books[j].PublisherID
			}
			return books[i].ISBN < books[j].ISBN
		})

		qty := decimal.NewFromInt(int64(quantity))
		var (
			current *models.PublisherOrder
			items   []models.PublisherOrderItem
		)
		flush := func() error {
			if current == nil {
				return nil
			}
			if err := createPublisherOrder(tx, current, items); err != nil {
				return err
			}
			placed = append(placed, *current)
			return nil
		}

		for _, b := range books {
			if current == nil || current.PublisherID != b.PublisherID {
				if err := flush(); err != nil {
					return err
				}
				current = &models.PublisherOrder{
					PublisherID: b.PublisherID,
					OrderDate:   now,
					Status:      models.PublisherOrderPending,
					TotalAmount: decimal.Zero,
				}
				items = nil
			}
			items = append(items, models.PublisherOrderItem{ISBN: b.ISBN, Quantity: quantity, UnitPrice: b.SellingPrice})
			current.TotalAmount = current.TotalAmount.Add(b.SellingPrice.Mul(qty))
		}
		return flush()
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}
