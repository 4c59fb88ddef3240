package service

import (
	"context"
	"strconv"
	"time"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
)

const DefaultReorderQuantity = 50

// ReorderService places replenishment orders for books that fell below
// their reorder threshold.
type ReorderService struct {
	Repo     *repo.GormRepo
	Quantity int
	Events   events.Publisher
	Now      func() time.Time
}

func (s *ReorderService) quantity() int {
	if s.Quantity > 0 {
		return s.Quantity
	}
	return DefaultReorderQuantity
}

func (s *ReorderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Reorder checks isbns; Sweep checks the whole catalog.
func (s *ReorderService) Reorder(ctx context.Context, isbns []string) ([]models.PublisherOrder, error) {
	if len(isbns) == 0 {
		return nil, nil
	}
	return s.place(ctx, isbns)
}

func (s *ReorderService) Sweep(ctx context.Context) ([]models.PublisherOrder, error) {
	return s.place(ctx, nil)
}

func (s *ReorderService) place(ctx context.Context, isbns []string) ([]models.PublisherOrder, error) {
	l := logging.FromContext(ctx).With().Str("svc", "reorder").Logger()

	placed, err := s.Repo.PlaceReorders(ctx, isbns, s.quantity(), s.now())
	if err != nil {
		return nil, err
	}
	for _, po := range placed {
		l.Info().Uint("pub_order_id", po.ID).Uint("publisher_id", po.PublisherID).Int("items", len(po.Items)).Msg("reorder_placed")
		publish(ctx, s.Events, &l, events.TopicPublisherOrders, strconv.FormatUint(uint64(po.ID), 10),
			events.New(events.PublisherOrderCreated, publisherOrderEvent(&po)))
	}
	return placed, nil
}

func publisherOrderEvent(po *models.PublisherOrder) map[string]any {
	items := make([]map[string]any, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, map[string]any{"isbn": it.ISBN, "quantity": it.Quantity})
	}
	return map[string]any{
		"pubOrderId":  po.ID,
		"publisherId": po.PublisherID,
		"status":      po.Status,
		"totalAmount": po.TotalAmount,
		"items":       items,
	}
}
