// Package config loads indexer settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends accepted by DERIVED_STORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds every knob the indexer reads at startup.
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"json"`

	// Addr is the listen address of the health/metrics server.
	Addr string `env:"ADDR" envDefault:":3002"`

	Store string `env:"DERIVED_STORE" envDefault:"postgres"`

	PostgresURL             string        `env:"POSTGRES_URL" envDefault:"postgres://localhost:5432/governance"`
	PostgresMinConns        int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	PostgresMaxConns        int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"1h"`
	PostgresConnMaxIdleTime time.Duration `env:"POSTGRES_CONN_MAX_IDLE_TIME" envDefault:"30m"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	// RedisStreamMaxLen caps streams written by the loader, 0 = unlimited.
	RedisStreamMaxLen int64 `env:"REDIS_STREAM_MAXLEN" envDefault:"10000"`

	// Streams lists one Redis stream per contract/topic. Order is only
	// guaranteed inside a stream.
	Streams       []string      `env:"EVENT_STREAMS" envSeparator:"," envDefault:"govx:governor,govx:drafts,govx:requests,govx:verification,govx:communities"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"projector"`
	ConsumerName  string        `env:"CONSUMER_NAME"`
	BatchSize     int64         `env:"STREAM_BATCH_SIZE" envDefault:"100"`
	BlockTimeout  time.Duration `env:"STREAM_BLOCK_TIMEOUT" envDefault:"5s"`

	// NotifyChannel receives a best-effort message per applied event. Empty disables it.
	NotifyChannel string `env:"NOTIFY_CHANNEL" envDefault:"govx:projection.applied"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func (c *Config) normalize() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown DERIVED_STORE %q", c.Store)
	}

	seen := make(map[string]bool, len(c.Streams))
	streams := make([]string, 0, len(c.Streams))
	for _, s := range c.Streams {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		streams = append(streams, s)
	}
	if len(streams) == 0 {
		return errors.New("EVENT_STREAMS must name at least one stream")
	}
	c.Streams = streams

	if c.ConsumerGroup == "" {
		return errors.New("CONSUMER_GROUP is required")
	}
	if c.ConsumerName == "" {
		// Stable per host so pending entries are reclaimed after a restart.
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "indexer"
		}
		c.ConsumerName = host
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	return nil
}
