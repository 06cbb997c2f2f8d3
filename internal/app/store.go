package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mortiou/m-book/internal/config"
	"github.com/Mortiou/m-book/internal/repository"
	"github.com/Mortiou/m-book/internal/repository/calibre"
	"github.com/Mortiou/m-book/internal/repository/elasticsearch"
	"github.com/Mortiou/m-book/internal/repository/memory"
	"github.com/Mortiou/m-book/internal/repository/postgres"
	"github.com/Mortiou/m-book/internal/repository/remote"
	"github.com/Mortiou/m-book/pkg/database"
)

// closer releases one resource on shutdown.
type closer struct {
	name string
	fn   func() error
}

// openStore builds the catalog store selected by cfg.CatalogStore.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.CatalogRepository, []closer, error) {
	switch cfg.CatalogStore {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers := []closer{{"postgres", func() error { pool.Close(); return nil }}}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)

		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		if cfg.SlowQueryThresholdMs > 0 {
			database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
		}

		store := postgres.New(pool)
		if err := store.Migrate(ctx, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
		return store, closers, nil

	case config.StoreElasticsearch:
		store, err := elasticsearch.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init elasticsearch store: %w", err)
		}
		logger.Info("elasticsearch catalog store initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
		return store, nil, nil

	case config.StoreCalibre:
		store, err := calibre.Open(cfg.CalibreLibraryPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open calibre library: %w", err)
		}
		logger.Info("calibre library opened (read-only)", slog.String("path", cfg.CalibreLibraryPath))
		return store, []closer{{"calibre", store.Close}}, nil

	case config.StoreRemote:
		store, err := remote.New(cfg.CatalogServiceURL, logger, remote.WithAdminToken(cfg.AdminAPIToken))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("remote catalog store initialized", slog.String("url", cfg.CatalogServiceURL))
		return store, nil, nil

	default:
		logger.Info("in-memory catalog store initialized")
		return memory.NewSeeded(), nil, nil
	}
}
