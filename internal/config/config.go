package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	Features  FeatureFlags
}

type ServerConfig struct {
	Port            int           `envconfig:"SERVER_PORT" default:"8082"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `envconfig:"SERVER_REQUEST_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	Mode            string        `envconfig:"GIN_MODE" default:"release"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

type DatabaseConfig struct {
	Host         string        `envconfig:"DB_HOST" default:"localhost"`
	Port         int           `envconfig:"DB_PORT" default:"5432"`
	User         string        `envconfig:"DB_USER" default:"acme"`
	Password     string        `envconfig:"DB_PASSWORD" default:"acme"`
	Name         string        `envconfig:"DB_NAME" default:"acme_shop"`
	SSLMode      string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	MaxLifetime  time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	AutoMigrate  bool          `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_CACHE_TTL" default:"5m"`
}

type KafkaConfig struct {
	Brokers          []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic      string   `envconfig:"KAFKA_ORDERS_TOPIC" default:"orders"`
	FulfillmentTopic string   `envconfig:"KAFKA_FULFILLMENT_TOPIC" default:"fulfillment"`
	ConsumerGroup    string   `envconfig:"KAFKA_CONSUMER_GROUP" default:"checkout-service"`
}

// PaymentConfig configures the external payment gateway. An empty secret key
// leaves the gateway unconfigured; only simulated tokens are accepted then.
type PaymentConfig struct {
	StripeSecretKey      string `envconfig:"STRIPE_SECRET_KEY"`
	StripePublishableKey string `envconfig:"STRIPE_PUBLISHABLE_KEY"`
	Currency             string `envconfig:"PAYMENT_CURRENCY" default:"usd"`
	SimulatedTokenPrefix string `envconfig:"PAYMENT_SIMULATED_TOKEN_PREFIX" default:"tok_sim_"`
}

// GatewayConfigured reports whether a real payment gateway is available.
func (p PaymentConfig) GatewayConfigured() bool {
	return p.StripeSecretKey != ""
}

type RateLimitConfig struct {
	Window         time.Duration `envconfig:"ORDER_RATE_WINDOW" default:"60s"`
	MaxSubmissions int           `envconfig:"ORDER_RATE_MAX" default:"5"`
	MinInterval    time.Duration `envconfig:"ORDER_RATE_MIN_INTERVAL" default:"3s"`
}

// Validate rejects settings the rate gate cannot enforce.
func (r RateLimitConfig) Validate() error {
	if r.Window <= 0 {
		return errors.Errorf("ORDER_RATE_WINDOW must be positive, got %s", r.Window)
	}
	if r.MaxSubmissions < 1 {
		return errors.Errorf("ORDER_RATE_MAX must be at least 1, got %d", r.MaxSubmissions)
	}
	if r.MinInterval < 0 {
		return errors.Errorf("ORDER_RATE_MIN_INTERVAL must not be negative, got %s", r.MinInterval)
	}
	return nil
}

type FeatureFlags struct {
	EnableOrderEvents    bool `envconfig:"FEATURE_ORDER_EVENTS" default:"false"`
	EnableOrderCaching   bool `envconfig:"FEATURE_ORDER_CACHING" default:"false"`
	EnableRedisRateLimit bool `envconfig:"FEATURE_REDIS_RATE_LIMIT" default:"false"`
	EnableFulfillment    bool `envconfig:"FEATURE_FULFILLMENT_CONSUMER" default:"false"`
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, is loaded first and never overrides variables
// that are already set.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
