package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/config"
	"github.com/growthlab/growthlab-web/internal/db"
	"github.com/growthlab/growthlab-web/internal/handler"
	"github.com/growthlab/growthlab-web/internal/logging"
	"github.com/growthlab/growthlab-web/internal/platform"
	"github.com/growthlab/growthlab-web/internal/widget"
)

const (
	redisConnectAttempts = 5
	redisConnectInterval = 2 * time.Second
	shutdownTimeout      = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			sessionManager := widget.NewSessionManager(database, cfg.DB.Driver, cfg.SessionLifetime, !cfg.InsecureCookies)

			cache, closeCache, err := newCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeCache()

			client := platform.New(platform.Config{
				BaseURL: cfg.API.URL,
				APIKey:  cfg.API.Key,
				Timeout: cfg.API.Timeout,
			},
				platform.WithCache(cache, cfg.Cache.TTL),
				platform.WithDegradedMode(cfg.DegradedMode),
				platform.WithLogger(logger),
			)

			bridge := widget.NewBridge(sessionManager, client, cfg.WidgetTokenTimeout, logger)
			router := handler.NewRouter(handler.Deps{
				Resolver: auth.NewResolver(client, logger),
				Platform: client,
				Bridge:   bridge,
				Logger:   logger,
			})

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			srv.RegisterOnShutdown(bridge.Shutdown)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", slog.String("addr", cfg.HTTP.Addr),
					slog.String("platform", cfg.API.URL),
					slog.String("cache", cfg.Cache.Backend),
					slog.Bool("degraded_mode", cfg.DegradedMode))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// newCache builds the response cache selected by GROWTHLAB_CACHE_BACKEND.
func newCache(ctx context.Context, cfg *config.Config) (platform.Cache, func(), error) {
	if cfg.Cache.Backend != "redis" {
		return platform.NewMemoryCache(nil), func() {}, nil
	}
	rdb, err := platform.ConnectRedis(ctx, cfg.Redis.URL, redisConnectAttempts, redisConnectInterval)
	if err != nil {
		return nil, nil, err
	}
	return platform.NewRedisCache(rdb, ""), func() { _ = rdb.Close() }, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(os.Stderr, cfg.Log.Level, logging.Format(cfg.Log.Format))
}
