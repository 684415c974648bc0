package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		Registry  Registry  `envPrefix:"REGISTRY_"`
		Limits    Limits    `envPrefix:"LIMITS_"`
		Cache     Cache     `envPrefix:"CACHE_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
	}

	HTTP struct {
		Server  Server        `envPrefix:"SERVER_"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	}

	Server struct {
		Port         string        `env:"PORT,required"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info"`
	}

	Upstream struct {
		FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"5s"`
		MaxRetries   int           `env:"MAX_RETRIES" envDefault:"2"`
		RetryBackoff time.Duration `env:"RETRY_BACKOFF" envDefault:"250ms"`
		UserAgent    string        `env:"USER_AGENT" envDefault:"tileproxy/1.0"`
	}

	// Registry selects where map definitions come from. With SOURCE=file the
	// definitions are read once from PATH (a JSON document); with SOURCE=redis
	// they are read from all keys matching KEY_PATTERN.
	Registry struct {
		Source     string `env:"SOURCE" envDefault:"file"`
		Path       string `env:"PATH" envDefault:"maps.json"`
		Redis      Redis  `envPrefix:"REDIS_"`
		KeyPattern string `env:"KEY_PATTERN" envDefault:"tileproxy:map:*"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
	}

	// Limits configures the named upstream concurrency limiters referenced by
	// layer definitions. Parsed as "tag:capacity" pairs, e.g.
	// LIMITS_CONCURRENCY=osm:4,geonorge:1
	Limits struct {
		Concurrency    map[string]int     `env:"CONCURRENCY" envDefault:""`
		RatePerSecond  map[string]float64 `env:"RATE_PER_SECOND" envDefault:""`
		AcquireTimeout time.Duration      `env:"ACQUIRE_TIMEOUT" envDefault:"10s"`
	}

	Cache struct {
		Enabled bool          `env:"ENABLED" envDefault:"false"`
		TTL     time.Duration `env:"TTL" envDefault:"10m"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"tileproxy"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
