package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/transport"
)

type PublisherOrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Now    func() time.Time
}

func (s *PublisherOrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *PublisherOrderService) List(ctx context.Context, status string, offset, limit int) (int64, []models.PublisherOrder, error) {
	switch status {
	case "", models.PublisherOrderPending, models.PublisherOrderConfirmed, models.PublisherOrderCancelled:
	default:
		return 0, nil, fail(ErrValidation, "Invalid status")
	}
	return s.Repo.ListPublisherOrders(ctx, status, offset, limit)
}

func (s *PublisherOrderService) Get(ctx context.Context, id uint) (*models.PublisherOrder, error) {
	po, err := s.Repo.GetPublisherOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "Publisher order not found")
	}
	return po, nil
}

func (s *PublisherOrderService) Create(ctx context.Context, req transport.CreatePublisherOrderRequest) (*models.PublisherOrder, error) {
	l := logging.FromContext(ctx).With().Str("svc", "publisher_orders.create").Logger()

	lines := make([]repo.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, repo.OrderLine{ISBN: it.ISBN, Quantity: it.Quantity})
	}

	po, err := s.Repo.CreatePublisherOrder(ctx, req.PublisherID, lines, s.now())
	if errors.Is(err, repo.ErrMissingReference) {
		return nil, fail(ErrValidation, missingMessage(err))
	}
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, &l, events.TopicPublisherOrders, strconv.FormatUint(uint64(po.ID), 10),
		events.New(events.PublisherOrderCreated, publisherOrderEvent(po)))
	return po, nil
}

// Confirm receives the goods of a Pending order into stock.
func (s *PublisherOrderService) Confirm(ctx context.Context, id uint) (*models.PublisherOrder, error) {
	return s.transition(ctx, id, events.PublisherOrderConfirmed, func() error {
		return s.Repo.ConfirmPublisherOrder(ctx, id, s.now())
	})
}

func (s *PublisherOrderService) Cancel(ctx context.Context, id uint) (*models.PublisherOrder, error) {
	return s.transition(ctx, id, events.PublisherOrderCancelled, func() error {
		return s.Repo.CancelPublisherOrder(ctx, id)
	})
}

func (s *PublisherOrderService) transition(ctx context.Context, id uint, typ string, apply func() error) (*models.PublisherOrder, error) {
	l := logging.FromContext(ctx).With().Str("svc", "publisher_orders").Uint("pub_order_id", id).Logger()

	if err := apply(); err != nil {
		if errors.Is(err, repo.ErrNotPending) {
			return nil, fail(ErrNotFound, "Publisher order not found or not pending")
		}
		return nil, err
	}

	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Info().Str("status", po.Status).Msg("publisher_order_transition")
	publish(ctx, s.Events, &l, events.TopicPublisherOrders, strconv.FormatUint(uint64(id), 10),
		events.New(typ, publisherOrderEvent(po)))
	return po, nil
}
