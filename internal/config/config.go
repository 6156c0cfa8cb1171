// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

// Load reads configuration from the environment using viper with typed
// defaults and validation. A local .env file fills in anything the
// process environment does not already set.
func Load() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v.SetEnvPrefix("portal")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.read_header_timeout", 5*time.Second)

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.migrations_dir", "migrations")
	v.SetDefault("postgres.migrate_timeout", 30*time.Second)

	v.SetDefault("auth.session_ttl", 12*time.Hour)
	v.SetDefault("auth.auto_provision", true)
	v.SetDefault("auth.session_cache_dir", "")

	v.SetDefault("oidc.issuer", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")

	v.SetDefault("ratelimit.rps", 50)
	v.SetDefault("ratelimit.burst", 100)
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"logging.level",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"server.read_header_timeout",
		"postgres.dsn",
		"postgres.migrations_dir",
		"postgres.migrate_timeout",
		"auth.session_ttl",
		"auth.auto_provision",
		"auth.session_cache_dir",
		"oidc.issuer",
		"oidc.client_id",
		"oidc.client_secret",
		"oidc.redirect_url",
		"ratelimit.rps",
		"ratelimit.burst",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
