// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const logPrefix = "config:LoadConfig"

// Config holds message-router configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"message-router"`

	// Subject overrides (empty = built-in defaults)
	RouterSubject     string `envconfig:"ROUTER_SUBJECT"`
	DispatchedSubject string `envconfig:"ROUTER_DISPATCHED_SUBJECT"`

	// PublishEvents enables dispatch event publishing to COMMS.
	PublishEvents bool `envconfig:"ROUTER_PUBLISH_EVENTS" default:"true"`

	// DispatchTimeout is the per-dispatch handler budget. Non-positive
	// disables the budget.
	DispatchTimeout time.Duration `envconfig:"DISPATCH_TIMEOUT" default:"5s"`

	// HTTP status endpoint
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the router server.
// A non-positive DispatchTimeout is legal (it disables the budget).
func (c *Config) ValidateForServe() error {
	if c.COMMSURL == "" {
		return fmt.Errorf("%s - COMMS_URL is required for serve", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%s - HTTP_PORT must be a valid port", logPrefix)
	}
	return nil
}
