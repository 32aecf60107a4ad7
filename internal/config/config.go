// Package config loads PlateShare settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every environment setting of the service and the CLI.
type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerAddr      string `envconfig:"SERVER_ADDR" default:":8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL" default:"plateshare.sqlite3"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// TokenSecret signs identity tokens. When empty, a random secret is
	// kept in the database.
	TokenSecret   string `envconfig:"TOKEN_SECRET"`
	TokenTTLHours uint   `envconfig:"TOKEN_TTL_HOURS" default:"168"`

	// RedisAddr enables the food cache when set.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	CacheTTLSec   uint   `envconfig:"CACHE_TTL_SEC" default:"60"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`

	LifecycleSingleWinner   bool `envconfig:"LIFECYCLE_SINGLE_WINNER" default:"false"`
	LifecycleStepTimeoutSec uint `envconfig:"LIFECYCLE_STEP_TIMEOUT_SEC" default:"10"`

	RemoteTimeoutSec uint `envconfig:"REMOTE_TIMEOUT_SEC" default:"5"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	c := new(Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.ServerAddr == "" {
		return nil, fmt.Errorf("set SERVER_ADDR")
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	return c, nil
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSec) * time.Second
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSec) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

func (c *Config) LifecycleStepTimeout() time.Duration {
	return time.Duration(c.LifecycleStepTimeoutSec) * time.Second
}

func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutSec) * time.Second
}
