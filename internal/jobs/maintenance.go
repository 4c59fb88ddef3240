package jobs

import (
	"context"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
)

type TokenPurger interface {
	PurgeTokens(ctx context.Context) (int64, error)
}

type StockSweeper interface {
	Sweep(ctx context.Context) ([]models.PublisherOrder, error)
}

func PurgeTokens(p TokenPurger) Func {
	return func(ctx context.Context) error {
		n, err := p.PurgeTokens(ctx)
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Info().Int64("deleted", n).Msg("refresh tokens purged")
		return nil
	}
}

func SweepLowStock(s StockSweeper) Func {
	return func(ctx context.Context) error {
		orders, err := s.Sweep(ctx)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(orders))
		for _, po := range orders {
			ids = append(ids, po.ID)
		}
		logging.FromContext(ctx).Info().Int("orders", len(orders)).Uints("ids", ids).Msg("low stock sweep")
		return nil
	}
}
