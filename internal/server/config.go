// Package server wires the chat core to its HTTP surface: join endpoint,
// WebSocket upgrades, room and history read endpoints, and the index page.
package server

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the service settings. Values come from the environment via
// envconfig; every field has a usable default so an empty environment
// yields a working server.
type Config struct {
	Port           string   `envconfig:"SERVER_PORT" default:":8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`

	MaxMessageSize int64 `envconfig:"MAX_MESSAGE_SIZE" default:"512"`
	RoomCapacity   int   `envconfig:"ROOM_CAPACITY" default:"2"`
	HistoryLimit   int   `envconfig:"HISTORY_LIMIT" default:"10"`
	SendBuffer     int   `envconfig:"SEND_BUFFER" default:"32"`

	RateLimitBurst          int           `envconfig:"RATE_LIMIT_BURST" default:"5"`
	RateLimitRefillInterval time.Duration `envconfig:"RATE_LIMIT_REFILL_INTERVAL" default:"1s"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// NewConfigFromEnv reads the configuration from the environment, falling
// back to defaults for unset variables.
func NewConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg.sanitize(), nil
}

// sanitize clamps out-of-range values back to their defaults rather than
// failing startup on a bad environment.
func (c *Config) sanitize() *Config {
	if c.Port == "" {
		c.Port = ":8080"
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 512
	}
	if c.RoomCapacity <= 0 {
		c.RoomCapacity = 2
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 10
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 5
	}
	if c.RateLimitRefillInterval <= 0 {
		c.RateLimitRefillInterval = time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	return c
}
