// Command seed loads the reference catalog, plus optional synthetic books,
// into a catalog store or a running catalog service.
//
//	seed                                   # store from CATALOG_STORE
//	seed -store elasticsearch -synthetic 5000
//	seed -target http://localhost:8080 -token $ADMIN_API_TOKEN
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mortiou/m-book/internal/config"
	"github.com/Mortiou/m-book/internal/domain"
	"github.com/Mortiou/m-book/internal/repository"
	"github.com/Mortiou/m-book/internal/repository/elasticsearch"
	"github.com/Mortiou/m-book/internal/repository/postgres"
	"github.com/Mortiou/m-book/internal/repository/remote"
	"github.com/Mortiou/m-book/pkg/database"
	apperrors "github.com/Mortiou/m-book/pkg/errors"
	"github.com/Mortiou/m-book/pkg/logger"
)

// progressEvery controls how often progress is logged.
const progressEvery = 500

func main() {
	var (
		store     = flag.String("store", "", "target store: postgres or elasticsearch (default CATALOG_STORE)")
		target    = flag.String("target", "", "base URL of a running catalog service; overrides -store")
		token     = flag.String("token", os.Getenv("ADMIN_API_TOKEN"), "admin bearer token for -target")
		synthetic = flag.Int("synthetic", 0, "number of generated books to add after the reference catalog")
		seed      = flag.Uint64("seed", 1, "generator seed for -synthetic")
		skipRef   = flag.Bool("skip-reference", false, "do not load the reference catalog")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("mbook-seed", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	books := catalogToSeed(!*skipRef, *synthetic, *seed)
	if err := run(ctx, cfg, *store, *target, *token, books, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, store, target, token string, books []domain.Book, log *slog.Logger) error {
	repo, closeRepo, err := openTarget(ctx, cfg, store, target, token, log)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer closeRepo()

	start := time.Now()
	res, err := load(ctx, repo, books, log)
	log.Info("seed finished",
		slog.Int("added", res.added),
		slog.Int("skipped", res.skipped),
		slog.Duration("elapsed", time.Since(start)),
	)
	return err
}

// catalogToSeed returns the reference books (when requested) followed by n
// synthetic ones.
func catalogToSeed(reference bool, n int, seed uint64) []domain.Book {
	var books []domain.Book
	if reference {
		books = append(books, domain.ReferenceCatalog()...)
	}
	if n > 0 {
		books = append(books, synthesize(n, seed)...)
	}
	return books
}

func openTarget(ctx context.Context, cfg *config.Config, store, target, token string, log *slog.Logger) (repository.CatalogRepository, func(), error) {
	noop := func() {}

	if target != "" {
		r, err := remote.New(target, log, remote.WithAdminToken(token))
		if err != nil {
			return nil, noop, err
		}
		if err := r.Ping(ctx); err != nil {
			return nil, noop, fmt.Errorf("catalog service at %s: %w", target, err)
		}
		log.Info("seeding running catalog service", slog.String("url", target))
		return r, noop, nil
	}

	if store == "" {
		store = cfg.CatalogStore
	}
	switch store {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
		if err != nil {
			return nil, noop, fmt.Errorf("connect to postgres: %w", err)
		}
		s := postgres.New(pool)
		if err := s.Migrate(ctx, log); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("run migrations: %w", err)
		}
		log.Info("seeding postgres", slog.String("host", cfg.PostgresHost), slog.String("database", cfg.PostgresDB))
		return s, pool.Close, nil

	case config.StoreElasticsearch:
		s, err := elasticsearch.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchIndex, log)
		if err != nil {
			return nil, noop, fmt.Errorf("init elasticsearch store: %w", err)
		}
		log.Info("seeding elasticsearch", slog.String("url", cfg.ElasticsearchURL), slog.String("index", cfg.ElasticsearchIndex))
		return s, noop, nil

	default:
		return nil, noop, fmt.Errorf("store %q cannot be seeded; use postgres, elasticsearch or -target", store)
	}
}

type loadResult struct {
	added   int
	skipped int
}

// load adds every book to repo. Books that already exist are skipped so the
// seed can be re-run.
func load(ctx context.Context, repo repository.CatalogRepository, books []domain.Book, log *slog.Logger) (loadResult, error) {
	var res loadResult
	for i := range books {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		b := books[i]
		b.Normalize()
		err := repo.Add(ctx, &b)
		switch {
		case err == nil:
			res.added++
		case errors.Is(err, apperrors.ErrAlreadyExists):
			res.skipped++
		default:
			return res, fmt.Errorf("add %q: %w", b.Title, err)
		}

		if (i+1)%progressEvery == 0 {
			log.Info("seed progress", slog.Int("done", i+1), slog.Int("total", len(books)))
		}
	}
	return res, nil
}
