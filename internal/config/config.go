package config

import (
	"errors"
	"fmt"
	"time"

	pkgconfig "github.com/Mortiou/m-book/pkg/config"
	"github.com/Mortiou/m-book/pkg/database"
)

// Catalog store backends.
const (
	StoreMemory        = "memory"
	StorePostgres      = "postgres"
	StoreElasticsearch = "elasticsearch"
	StoreCalibre       = "calibre"
	StoreRemote        = "remote"
)

// Config holds all configuration for the catalog service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"MBOOK_HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Catalog store selection
	CatalogStore string `env:"CATALOG_STORE" envDefault:"memory"`

	// PostgreSQL
	PostgresURL  string `env:"POSTGRES_URL"`
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"mbook"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"mbook"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"mbook"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	SlowQueryThresholdMs  int   `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"mbook_books"`

	// Calibre library directory (contains metadata.db)
	CalibreLibraryPath string `env:"CALIBRE_LIBRARY_PATH"`

	// Upstream catalog service for the remote store
	CatalogServiceURL string `env:"CATALOG_SERVICE_URL"`

	// Redis snapshot cache and event dedup
	RedisEnabled  bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CatalogTTL    time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"mbook-catalog"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// HTTP edge
	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	AdminAPIToken        string   `env:"ADMIN_API_TOKEN"`
	SearchRateLimitRPS   float64  `env:"SEARCH_RATE_LIMIT_RPS" envDefault:"20"`
	SearchRateLimitBurst int      `env:"SEARCH_RATE_LIMIT_BURST" envDefault:"40"`

	// pprof
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if c.SearchRateLimitRPS <= 0 || c.SearchRateLimitBurst < 1 {
		return errors.New("SEARCH_RATE_LIMIT_RPS and SEARCH_RATE_LIMIT_BURST must be positive")
	}

	switch c.CatalogStore {
	case StoreMemory:
	case StorePostgres:
		if c.PostgresURL == "" && (c.PostgresPort < 1 || c.PostgresPort > 65535) {
			return fmt.Errorf("invalid POSTGRES_PORT: %d", c.PostgresPort)
		}
	case StoreElasticsearch:
		if c.ElasticsearchURL == "" {
			return errors.New("ELASTICSEARCH_URL is required for the elasticsearch store")
		}
	case StoreCalibre:
		if c.CalibreLibraryPath == "" {
			return errors.New("CALIBRE_LIBRARY_PATH is required for the calibre store")
		}
	case StoreRemote:
		if c.CatalogServiceURL == "" {
			return errors.New("CATALOG_SERVICE_URL is required for the remote store")
		}
	default:
		return fmt.Errorf("unknown CATALOG_STORE %q", c.CatalogStore)
	}

	if c.RedisEnabled && (c.RedisPort < 1 || c.RedisPort > 65535) {
		return fmt.Errorf("invalid REDIS_PORT: %d", c.RedisPort)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}

// Postgres returns the connection pool settings.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		URL:             c.PostgresURL,
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis client settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Addr:     fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort),
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
