package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from an optional YAML file, then overridden by environment variables.
type Config struct {
	Env      string         `yaml:"env" env:"MINBAR_ENV" env-default:"local" env-description:"local, dev or prod"`
	LogLevel string         `yaml:"log_level" env:"MINBAR_LOG_LEVEL" env-default:"info"`
	Server   Server         `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	// OperationTimeout bounds every lifecycle operation.
	OperationTimeout time.Duration `yaml:"operation_timeout" env:"MINBAR_OPERATION_TIMEOUT" env-default:"5s"`
	CodeAttempts     AttemptLimit  `yaml:"code_attempts"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr" env:"MINBAR_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"MINBAR_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"MINBAR_WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"MINBAR_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For. Only
	// set it behind a proxy that overwrites the header.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" env:"MINBAR_TRUST_PROXY_HEADERS" env-default:"false"`
}

// PostgresConfig selects the durable store. An empty DSN runs on in-memory stores.
type PostgresConfig struct {
	DSN          string `yaml:"dsn" env:"MINBAR_POSTGRES_DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"MINBAR_POSTGRES_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns int    `yaml:"max_idle_conns" env:"MINBAR_POSTGRES_MAX_IDLE_CONNS" env-default:"5"`
}

// RedisConfig holds the session revocation backend. An empty URL keeps revocations in memory.
type RedisConfig struct {
	URL          string        `yaml:"url" env:"MINBAR_REDIS_URL"`
	PoolSize     int           `yaml:"pool_size" env:"MINBAR_REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"MINBAR_REDIS_MIN_IDLE_CONNS" env-default:"2"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"MINBAR_REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"MINBAR_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"MINBAR_REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

// KafkaConfig enables mirroring audit entries to a topic when brokers are set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"MINBAR_KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"MINBAR_KAFKA_AUDIT_TOPIC" env-default:"minbar.audit"`
	// QueueSize is how many entries may wait for the broker before new ones are dropped.
	QueueSize int `yaml:"queue_size" env:"MINBAR_KAFKA_QUEUE_SIZE" env-default:"1024"`
}

type AuthConfig struct {
	JWTSigningKey string        `yaml:"jwt_signing_key" env:"MINBAR_JWT_SIGNING_KEY" env-default:"dev-secret-key-change-in-production"`
	Issuer        string        `yaml:"issuer" env:"MINBAR_JWT_ISSUER" env-default:"minbar"`
	Audience      string        `yaml:"audience" env:"MINBAR_JWT_AUDIENCE" env-default:"minbar-api"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"MINBAR_JWT_TTL" env-default:"12h"`
}

// AttemptLimit throttles verification-code checks (apply, reapply, sign-in)
// per caller and institution.
type AttemptLimit struct {
	PerMinute float64 `yaml:"per_minute" env:"MINBAR_CODE_ATTEMPTS_PER_MINUTE" env-default:"5"`
	Burst     int     `yaml:"burst" env:"MINBAR_CODE_ATTEMPTS_BURST" env-default:"3"`
}

func (c *Config) IsProduction() bool { return c.Env == "prod" }

// Load reads path when it is non-empty, otherwise the environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("%w; %s", err, desc)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.Auth.JWTSigningKey == "dev-secret-key-change-in-production" {
		return errors.New("MINBAR_JWT_SIGNING_KEY must be set in prod")
	}
	if c.OperationTimeout <= 0 {
		return errors.New("operation timeout must be positive")
	}
	if c.CodeAttempts.PerMinute <= 0 || c.CodeAttempts.Burst < 1 {
		return errors.New("code attempt limit must allow at least one attempt")
	}
	return nil
}
