package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/bookstore/internal/db"
	"github.com/Skotchmaster/bookstore/internal/httpserver"
	"github.com/Skotchmaster/bookstore/internal/jobs"
	"github.com/Skotchmaster/bookstore/internal/middleware/ratelimit"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	pub := a.publisher()
	defer func() {
		if err := pub.Close(); err != nil {
			a.log.Error().Err(err).Msg("kafka close error")
		}
	}()

	svc, err := a.services(pub, a.index(ctx))
	if err != nil {
		return err
	}

	limiter, closeLimiter := a.authLimiter(ctx)
	defer closeLimiter()

	sched := jobs.NewScheduler(a.log, 5*time.Minute)
	if err := sched.Add("token_purge", a.cfg.TokenPurgeCron, jobs.PurgeTokens(svc.auth)); err != nil {
		return err
	}
	if err := sched.Add("reorder_sweep", a.cfg.ReorderSweepCron, jobs.SweepLowStock(svc.reorder)); err != nil {
		return err
	}

	e := httpserver.New(a.log, httpserver.Options{
		AllowedOrigins: a.cfg.AllowedOrigins(),
		CookieSecure:   a.cfg.CookieSecure,
	}, &httpserver.Deps{
		Auth:            &httpserver.AuthHTTP{Svc: svc.auth, CookieSecure: a.cfg.CookieSecure},
		Users:           &httpserver.UserHTTP{Svc: svc.users},
		Books:           &httpserver.BookHTTP{Svc: svc.books},
		Catalog:         &httpserver.CatalogHTTP{Svc: svc.catalog},
		Cart:            &httpserver.CartHTTP{Svc: svc.cart},
		Orders:          &httpserver.OrderHTTP{Svc: svc.orders},
		PublisherOrders: &httpserver.PublisherOrderHTTP{Svc: svc.publisherOrders},
		Reports:         &httpserver.ReportHTTP{Svc: svc.reports},
		Health:          &httpserver.HealthHTTP{DB: func(ctx context.Context) error { return db.Ping(ctx, a.db) }},
		JWTSecret:       []byte(a.cfg.JWTSecret),
		UserChecker:     svc.auth.Repo,
		AuthLimiter:     limiter,
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()
	sched.Start()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down...")
	case err := <-errc:
		if err != nil {
			a.log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("server shutdown error")
	}
	sched.Stop(shutdownCtx)

	a.log.Info().Msg("shutdown complete")
	return nil
}

// authLimiter uses redis when REDIS_ADDR is set so every replica shares the budget.
func (a *app) authLimiter(ctx context.Context) (echo.MiddlewareFunc, func()) {
	limit, window := a.cfg.AuthRateLimit, a.cfg.AuthRateWindow

	if a.cfg.RedisAddr == "" {
		return ratelimit.Middleware(ratelimit.NewMemoryStore(limit, window)), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		a.log.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("redis unavailable, using in-memory rate limiter")
		_ = client.Close()
		return ratelimit.Middleware(ratelimit.NewMemoryStore(limit, window)), func() {}
	}

	store := &ratelimit.RedisStore{
		Client: client,
		Limit:  limit,
		Window: window,
		Prefix: "bookstore:ratelimit:auth:",
		Log:    a.log,
	}
	return ratelimit.Middleware(store), func() {
		if err := client.Close(); err != nil {
			a.log.Error().Err(err).Msg("redis close error")
		}
	}
}
