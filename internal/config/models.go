package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Auth      AuthConfig      `mapstructure:"auth"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate ensures required fields are present and consistent.
func (c Config) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("server.port is required")
	}
	if c.OIDC.Enabled() {
		if c.OIDC.ClientID == "" || c.OIDC.ClientSecret == "" {
			return errors.New("oidc.client_id and oidc.client_secret are required when oidc.issuer is set")
		}
		if c.OIDC.RedirectURL == "" {
			return errors.New("oidc.redirect_url is required when oidc.issuer is set")
		}
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("ratelimit.rps and ratelimit.burst must be positive")
	}
	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
}

// PostgresConfig describes database connection parameters. An empty DSN
// selects the in-memory store, which suits demos and tests.
type PostgresConfig struct {
	DSN            string        `mapstructure:"dsn"`
	MigrationsDir  string        `mapstructure:"migrations_dir"`
	MigrateTimeout time.Duration `mapstructure:"migrate_timeout"`
}

// AuthConfig contains session and provisioning policy.
type AuthConfig struct {
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	AutoProvision   bool          `mapstructure:"auto_provision"`
	SessionCacheDir string        `mapstructure:"session_cache_dir"`
}

// OIDCConfig describes the optional federated identity provider.
type OIDCConfig struct {
	Issuer       string `mapstructure:"issuer"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether federated login is configured.
func (o OIDCConfig) Enabled() bool { return o.Issuer != "" }

// RateLimitConfig bounds per-client request rates.
type RateLimitConfig struct {
	RPS   int `mapstructure:"rps"`
	Burst int `mapstructure:"burst"`
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}
