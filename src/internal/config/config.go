package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from environment variables and config files
func Load() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetEnvPrefix("CATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	configPaths := []string{
		v.GetString("paths.config"),
		".",
		"/etc/cattle-backend",
	}
	for _, path := range configPaths {
		if path != "" {
			v.AddConfigPath(path)
		}
	}
	v.SetConfigName("config")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	// Path defaults
	v.SetDefault("paths.config", "/etc/cattle-backend")
	v.SetDefault("paths.uploads", "/var/lib/cattle-backend/uploads")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "cattle.db")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_time", 300)

	// Security defaults
	v.SetDefault("security.secret_key", "")
	v.SetDefault("security.jwt.access_token_ttl", "2h")

	// Redis / cache defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.key_prefix", "cattle:")
	v.SetDefault("cache.stats_ttl", "60s")

	// Email defaults (delivery is best-effort, mirrors persisted notifications)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.from_address", "noreply@localhost")
	v.SetDefault("email.from_name", "Cattle Registry")
	v.SetDefault("email.smtp.host", "localhost")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.skip_verify", false)

	// Rate limiting defaults
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 20)
	v.SetDefault("ratelimit.burst", 40)

	// Workflow defaults
	v.SetDefault("verification.turnaround_hours", 48)
	v.SetDefault("identification.expiry_days", 7)
	v.SetDefault("transfer.expiry_days", 30)

	v.SetDefault("environment", "development")
	v.SetDefault("debug", false)
}
