// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath     = pflag.String("config", ".", "Directory containing config.toml")
	migrateOnly    = pflag.Bool("migrate-only", false, "Run database migrations and exit")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers   = []string{"postgres", "sqlite"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// MigrateOnly reports whether the app was started with --migrate-only
func MigrateOnly() bool { return *migrateOnly }

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file, %w", err)
	}

	if !pflag.Parsed() {
		pflag.Parse()
	}
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	bindEnvs()
	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return Validate()
}

func bindEnvs() {
	v.AutomaticEnv()

	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.access_ttl", "JWT_ACCESS_TTL")
	v.BindEnv("jwt.refresh_ttl", "JWT_REFRESH_TTL")

	v.BindEnv("redis.url", "REDIS_URL")

	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN", "DATABASE_URL")

	v.BindEnv("mail.host", "SMTP_HOST")
	v.BindEnv("mail.port", "SMTP_PORT")
	v.BindEnv("mail.username", "SMTP_USER")
	v.BindEnv("mail.password", "SMTP_PASSWORD")
	v.BindEnv("mail.from", "SMTP_FROM")
	v.BindEnv("mail.async", "MAIL_ASYNC")
	v.BindEnv("mail.workers", "MAIL_WORKERS")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
	v.BindEnv("security.max_body_size", "SECURITY_MAX_BODY_SIZE")

	v.BindEnv("events.enabled", "EVENTS_ENABLED")
	v.BindEnv("events.brokers", "EVENTS_BROKERS")
	v.BindEnv("events.topic", "EVENTS_TOPIC")

	v.BindEnv("cleanup.schedule", "CLEANUP_SCHEDULE")
	v.BindEnv("cleanup.unverified_after", "CLEANUP_UNVERIFIED_AFTER")
}

func setDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8000)
	v.SetDefault("host.cors", "http://localhost:3000")

	v.SetDefault("jwt.access_ttl", 30*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)

	v.SetDefault("db.driver", "postgres")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.async", false)
	v.SetDefault("mail.workers", 4)

	v.SetDefault("security.rate_limit", 5)
	v.SetDefault("security.max_body_size", 1<<20)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.topic", "esports.events")

	v.SetDefault("cleanup.schedule", "@daily")
	v.SetDefault("cleanup.unverified_after", 7*24*time.Hour)
}

// Validate checks the loaded values. It is split from Setup so tests can
// drive it with v.Set.
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("jwt.secret") == "" {
		return fmt.Errorf("jwt.secret is required, you can use this freshly generated one:\n\n%s", genSecret())
	}

	if v.GetDuration("jwt.access_ttl") <= 0 || v.GetDuration("jwt.refresh_ttl") <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	if v.GetString("redis.url") == "" {
		return errors.New("redis.url is required")
	}

	driver := v.GetString("db.driver")
	if !slices.Contains(validDrivers, driver) {
		return errors.New("invalid database driver provided")
	}

	if driver == "postgres" && v.GetString("db.dsn") == "" {
		return errors.New("db.dsn is required for postgres")
	}

	if v.GetString("mail.host") == "" {
		return errors.New("mail.host is required")
	}

	if v.GetString("mail.from") == "" {
		return errors.New("mail.from is required")
	}

	if v.GetFloat64("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetBool("events.enabled") && len(Brokers()) == 0 {
		return errors.New("events.brokers is required when events are enabled")
	}

	if v.GetDuration("cleanup.unverified_after") <= 0 {
		return errors.New("cleanup.unverified_after must be positive")
	}

	return nil
}

// Brokers returns the configured kafka brokers. Env values are comma separated.
func Brokers() []string {
	return splitList(v.GetStringSlice("events.brokers"))
}

// CORSOrigins returns the allowed origins
func CORSOrigins() []string {
	return splitList(v.GetStringSlice("host.cors"))
}

func splitList(in []string) []string {
	var out []string

	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
