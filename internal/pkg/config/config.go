package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	EnvProduction = "production"

	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	minSecretLen = 32

	devAccessSecret  = "dev-only-access-secret-do-not-use-in-prod"
	devRefreshSecret = "dev-only-refresh-secret-do-not-use-in-prod"
	defaultSQLiteDSN = "file:storefront.db?_pragma=foreign_keys(1)"
)

type Config struct {
	Port            string        `env:"PORT,             default=5000"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	APIPrefix       string        `env:"API_PREFIX,       default=/api/v1"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Auth     AuthConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	RabbitMQ RabbitMQConfig
	Search   SearchConfig
	Events   EventsConfig

	// DevSecrets is set when the JWT secrets were filled with development values.
	DevSecrets bool
}

type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	BcryptCost       int           `env:"BCRYPT_COST,        default=10"`
	AllowAdminSignup bool          `env:"ALLOW_ADMIN_SIGNUP, default=true"`
	LoginRateLimit   int           `env:"LOGIN_RATE_LIMIT,   default=10"`
	LoginRateWindow  time.Duration `env:"LOGIN_RATE_WINDOW,  default=1m"`
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER, default=mongo"`
	DatabaseURL string `env:"DATABASE_URL"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

// RedisConfig leaves Redis disabled when Addr is empty.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// KafkaConfig leaves Kafka disabled when Brokers is empty.
type KafkaConfig struct {
	Brokers      []string `env:"KAFKA_BROKERS"`
	ProductTopic string   `env:"KAFKA_PRODUCT_TOPIC, default=product_events"`
}

// RabbitMQConfig leaves RabbitMQ disabled when URL is empty.
type RabbitMQConfig struct {
	URL      string `env:"RABBITMQ_URL"`
	Exchange string `env:"RABBITMQ_EXCHANGE, default=storefront.products"`
}

// SearchConfig leaves the Elasticsearch catalog disabled when URLs is empty.
type SearchConfig struct {
	URLs     []string `env:"ELASTICSEARCH_URLS"`
	Username string   `env:"ELASTICSEARCH_USERNAME"`
	Password string   `env:"ELASTICSEARCH_PASSWORD"`
	Index    string   `env:"ELASTICSEARCH_INDEX, default=products"`
}

type EventsConfig struct {
	Workers int `env:"EVENT_WORKERS, default=4"`
}

// IsProduction reports whether the service runs with production hardening.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads the configuration through l and applies the startup checks.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) finalize() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case StoreMongo:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreSQLite:
		if c.Store.DatabaseURL == "" {
			c.Store.DatabaseURL = defaultSQLiteDSN
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Events.Workers <= 0 {
		return fmt.Errorf("EVENT_WORKERS must be positive, got %d", c.Events.Workers)
	}
	if c.Auth.LoginRateLimit <= 0 || c.Auth.LoginRateWindow <= 0 {
		return errors.New("LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive")
	}

	return c.checkSecrets()
}

func (c *Config) checkSecrets() error {
	if c.IsProduction() {
		if c.Auth.JWTSecret == "" || c.Auth.JWTRefreshSecret == "" {
			return errors.New("JWT_SECRET and JWT_REFRESH_SECRET are required in production")
		}
		if len(c.Auth.JWTSecret) < minSecretLen || len(c.Auth.JWTRefreshSecret) < minSecretLen {
			return fmt.Errorf("JWT secrets must be at least %d bytes in production", minSecretLen)
		}
	}

	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = devAccessSecret
		c.DevSecrets = true
	}
	if c.Auth.JWTRefreshSecret == "" {
		c.Auth.JWTRefreshSecret = devRefreshSecret
		c.DevSecrets = true
	}
	if c.Auth.JWTSecret == c.Auth.JWTRefreshSecret {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return nil
}
