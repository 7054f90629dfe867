package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Addr            string        `env:"LINKAGE_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Registry     RegistryConfig
	Auth         AuthConfig
	Relationship RelationshipConfig
	History      HistoryConfig
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects the
// in-memory stores.
type DatabaseConfig struct {
	URL          string        `env:"DATABASE_URL"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxIdleTime  time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
}

// RedisConfig holds Redis connection settings. An empty URL keeps creation
// locking in-process and disables the party cache.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	LockTTL      time.Duration `env:"REDIS_LOCK_TTL" envDefault:"10s"`
}

// KafkaConfig holds history transport settings. No brokers means history is
// written straight to the Postgres or memory sink.
type KafkaConfig struct {
	Brokers       []string `env:"KAFKA_BROKERS" envSeparator:","`
	HistoryTopic  string   `env:"KAFKA_HISTORY_TOPIC" envDefault:"relationship.history"`
	ConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"linkage-history"`
	Partitions    int32    `env:"KAFKA_HISTORY_PARTITIONS" envDefault:"3"`
	Replication   int16    `env:"KAFKA_HISTORY_REPLICATION" envDefault:"1"`
}

// Enabled reports whether a broker list was configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// RegistryConfig points at the party registry. An empty URL selects the
// in-memory registry.
type RegistryConfig struct {
	URL      string        `env:"PARTY_REGISTRY_URL"`
	Timeout  time.Duration `env:"PARTY_REGISTRY_TIMEOUT" envDefault:"3s"`
	CacheTTL time.Duration `env:"PARTY_CACHE_TTL" envDefault:"5m"`

	// Seed lists kind:id[:inactive] parties for the in-memory registry.
	Seed []string `env:"PARTY_SEED" envSeparator:","`
}

// AuthConfig configures bearer token validation at the edge.
type AuthConfig struct {
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"linkage"`
	EnforceRoles  bool   `env:"ENFORCE_ROLES" envDefault:"false"`
}

// RelationshipConfig tunes the relationship service.
type RelationshipConfig struct {
	StaleMonths     int `env:"VERIFICATION_STALE_MONTHS" envDefault:"6"`
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" envDefault:"50"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE" envDefault:"500"`
}

// HistoryConfig tunes the asynchronous history publisher.
type HistoryConfig struct {
	BufferSize   int           `env:"HISTORY_BUFFER_SIZE" envDefault:"10000"`
	MaxAttempts  int           `env:"HISTORY_MAX_ATTEMPTS" envDefault:"5"`
	RetryBackoff time.Duration `env:"HISTORY_RETRY_BACKOFF" envDefault:"200ms"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.Relationship.StaleMonths <= 0 {
		return fmt.Errorf("VERIFICATION_STALE_MONTHS must be positive")
	}
	if c.Relationship.DefaultPageSize <= 0 || c.Relationship.MaxPageSize < c.Relationship.DefaultPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive and not exceed MAX_PAGE_SIZE")
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required")
	}
	if c.Kafka.Enabled() && c.Database.URL == "" {
		return fmt.Errorf("KAFKA_BROKERS requires DATABASE_URL for the history consumer")
	}
	return nil
}
