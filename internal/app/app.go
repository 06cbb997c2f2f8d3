package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mortiou/m-book/internal/config"
	"github.com/Mortiou/m-book/internal/engine"
	"github.com/Mortiou/m-book/internal/event"
	handler "github.com/Mortiou/m-book/internal/handler/http"
	"github.com/Mortiou/m-book/internal/repository/cache"
	"github.com/Mortiou/m-book/internal/service"
	"github.com/Mortiou/m-book/pkg/database"
	"github.com/Mortiou/m-book/pkg/health"
	pkgkafka "github.com/Mortiou/m-book/pkg/kafka"
	"github.com/Mortiou/m-book/pkg/middleware"
	"github.com/Mortiou/m-book/pkg/tracing"
)

const serviceName = "mbook"

// dedupTTL bounds how long processed event ids are remembered.
const dedupTTL = 24 * time.Hour

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	consumer       *pkgkafka.Consumer
	closers        []closer
	stop           context.CancelFunc
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tcfg := tracing.DefaultConfig(serviceName)
	tcfg.Environment = cfg.Environment
	tcfg.OTLPEndpoint = cfg.OTELEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	tcfg.Enabled = cfg.OTELEnabled
	a.tracerShutdown, err = tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	repo, closers, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closers...)

	healthHandler := health.NewHandler(serviceName)
	healthHandler.RegisterCritical("catalog_"+cfg.CatalogStore, repo.Ping)

	var opts []service.Option

	// Redis snapshot cache.
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, closer{"redis", redisClient.Close})
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr))

		snapshot := cache.New(repo, redisClient, cfg.CatalogTTL, logger)
		repo = snapshot
		opts = append(opts, service.WithInvalidator(snapshot))
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// Kafka producer for book events.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.closers = append(a.closers, closer{"kafka producer", producer.Close})
		if err := producer.Ping(ctx); err != nil {
			logger.Warn("kafka producer ping failed, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		opts = append(opts, service.WithPublisher(event.NewProducer(producer, logger)))
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	catalogService := service.NewCatalogService(repo, engine.New(), logger, opts...)

	// Kafka consumer keeping this instance's catalog in step with the others.
	if cfg.KafkaEnabled {
		group := consumerGroup(cfg.KafkaGroupID)

		var dedup pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(dedupTTL)
		if redisClient != nil {
			dedup = pkgkafka.NewRedisIdempotencyStore(redisClient, "mbook:events:"+group, dedupTTL)
		}

		dlq := pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.closers = append(a.closers, closer{"kafka dlq", dlq.Close})

		eventConsumer := event.NewConsumer(catalogService, logger)
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  group,
			Topics:   event.Topics(),
			MinBytes: 1,
			MaxBytes: 10e6,
		}, pkgkafka.IdempotentHandler(dedup, group, eventConsumer.Handle, logger), logger).WithDLQ(dlq)
		logger.Info("kafka consumer initialized",
			slog.String("group", group),
			slog.Any("topics", event.Topics()),
		)
	}

	// HTTP router.
	routerCtx, stop := context.WithCancel(context.Background())
	a.stop = stop

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(routerCtx, catalogService, healthHandler, handler.RouterConfig{
		ServiceName:    serviceName,
		AdminToken:     cfg.AdminAPIToken,
		CORS:           cors,
		RateLimitRPS:   cfg.SearchRateLimitRPS,
		RateLimitBurst: cfg.SearchRateLimitBurst,
		PprofEnabled:   cfg.PprofEnabled,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		PublicBaseURL:  cfg.PublicBaseURL,
	}, logger)

	if cfg.AdminAPIToken == "" {
		logger.Warn("ADMIN_API_TOKEN is empty; catalog write endpoints are unauthenticated")
	}

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and the Kafka consumer, blocking until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("component failed", slog.String("error", runErr.Error()))
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	errs = append(errs, a.release())

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// release closes stores and clients in reverse order of acquisition.
func (a *App) release() error {
	if a.stop != nil {
		a.stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.logger.Error("close error", slog.String("resource", c.name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// consumerGroup gives every instance its own group so each one sees every
// book event.
func consumerGroup(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return base
	}
	return base + "-" + host
}
