package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/config"
	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/search"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/tokens"
)

// app holds what every command needs: settings, a logger and the database.
type app struct {
	cfg *config.Config
	log zerolog.Logger
	db  *gorm.DB
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate || cfg.DBDriver == db.DriverSQLite {
		if err := db.AutoMigrate(ctx, gdb); err != nil {
			_ = db.Close(gdb)
			return nil, err
		}
	}
	return &app{cfg: cfg, log: log, db: gdb}, nil
}

func (a *app) close() {
	if err := db.Close(a.db); err != nil {
		a.log.Error().Err(err).Msg("db close error")
	}
}

// publisher returns a kafka producer when brokers are configured.
func (a *app) publisher() events.Publisher {
	brokers := a.cfg.Brokers()
	if len(brokers) == 0 {
		a.log.Info().Msg("kafka disabled, events are dropped")
		return events.Nop{}
	}
	p, err := events.NewKafkaProducer(brokers)
	if err != nil {
		a.log.Warn().Err(err).Msg("kafka unavailable, events are dropped")
		return events.Nop{}
	}
	return p
}

// index connects to elasticsearch. Nil means search runs against the database.
func (a *app) index(ctx context.Context) *search.Client {
	if a.cfg.ESURL == "" {
		return nil
	}
	client, err := search.NewClient(search.Config{
		URL:      a.cfg.ESURL,
		Username: a.cfg.ESUser,
		Password: a.cfg.ESPassword,
		Index:    a.cfg.ESIndex,
	}, a.log)
	if err != nil {
		a.log.Warn().Err(err).Msg("elasticsearch unavailable, falling back to database search")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.EnsureIndex(ctx); err != nil {
		a.log.Warn().Err(err).Msg("elasticsearch index setup failed, falling back to database search")
		return nil
	}
	return client
}

type services struct {
	auth            *service.AuthService
	users           *service.UserService
	books           *service.BookService
	catalog         *service.CatalogService
	reorder         *service.ReorderService
	cart            *service.CartService
	orders          *service.OrderService
	publisherOrders *service.PublisherOrderService
	reports         *service.ReportService
}

func (a *app) services(pub events.Publisher, idx *search.Client) (*services, error) {
	r := repo.New(a.db)
	rr, err := repo.NewReportRepo(a.db)
	if err != nil {
		return nil, fmt.Errorf("report repo: %w", err)
	}

	issuer := &tokens.Issuer{
		AccessSecret:  []byte(a.cfg.JWTSecret),
		RefreshSecret: []byte(a.cfg.JWTRefreshSecret),
		AccessTTL:     a.cfg.AccessTTL,
		RefreshTTL:    a.cfg.RefreshTTL,
	}

	books := &service.BookService{Repo: r, Events: pub}
	if idx != nil {
		books.Index = idx
	}
	reorder := &service.ReorderService{Repo: r, Quantity: a.cfg.ReorderQuantity, Events: pub}

	return &services{
		auth:            &service.AuthService{Repo: r, Issuer: issuer, Events: pub},
		users:           &service.UserService{Repo: r},
		books:           books,
		catalog:         &service.CatalogService{Repo: r},
		reorder:         reorder,
		cart:            &service.CartService{Repo: r, Reorder: reorder, Events: pub},
		orders:          &service.OrderService{Repo: r},
		publisherOrders: &service.PublisherOrderService{Repo: r, Events: pub},
		reports:         &service.ReportService{Repo: rr},
	}, nil
}

var errNoIndex = errors.New("elasticsearch is not configured or unreachable (set BOOKSTORE_ES_URL)")
