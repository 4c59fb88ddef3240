// Package config loads runtime settings from BOOKSTORE_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const Prefix = "BOOKSTORE_"

type Config struct {
	Port     string `koanf:"port" validate:"required,numeric"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	DBDriver    string `koanf:"db_driver" validate:"oneof=postgres sqlite"`
	DatabaseURL string `koanf:"database_url" validate:"required"`
	AutoMigrate bool   `koanf:"auto_migrate"`

	JWTSecret        string        `koanf:"jwt_secret" validate:"required,min=16"`
	JWTRefreshSecret string        `koanf:"jwt_refresh_secret" validate:"required,min=16,nefield=JWTSecret"`
	AccessTTL        time.Duration `koanf:"access_ttl" validate:"gt=0"`
	RefreshTTL       time.Duration `koanf:"refresh_ttl" validate:"gtfield=AccessTTL"`
	CookieSecure     bool          `koanf:"cookie_secure"`
	CORSOrigins      string        `koanf:"cors_origins"`

	KafkaBrokers string `koanf:"kafka_brokers"`

	ESURL      string `koanf:"es_url" validate:"omitempty,url"`
	ESUser     string `koanf:"es_user"`
	ESPassword string `koanf:"es_password"`
	ESIndex    string `koanf:"es_index" validate:"required"`

	RedisAddr      string        `koanf:"redis_addr" validate:"omitempty,hostname_port"`
	AuthRateLimit  int           `koanf:"auth_rate_limit" validate:"gt=0"`
	AuthRateWindow time.Duration `koanf:"auth_rate_window" validate:"gt=0"`

	ReorderQuantity  int    `koanf:"reorder_quantity" validate:"gt=0"`
	ReorderSweepCron string `koanf:"reorder_sweep_cron"`
	TokenPurgeCron   string `koanf:"token_purge_cron"`
}

func Defaults() Config {
	return Config{
		Port:             "8080",
		LogLevel:         "info",
		DBDriver:         "postgres",
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       7 * 24 * time.Hour,
		ESIndex:          "books",
		AuthRateLimit:    100,
		AuthRateWindow:   15 * time.Minute,
		ReorderQuantity:  50,
		ReorderSweepCron: "@every 1h",
		TokenPurgeCron:   "@daily",
	}
}

// Load reads .env (when present) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	k := koanf.New(".")
	err := k.Load(env.Provider(Prefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, Prefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Addr() string { return ":" + c.Port }

func (c *Config) Brokers() []string { return CSV(c.KafkaBrokers) }

func (c *Config) AllowedOrigins() []string { return CSV(c.CORSOrigins) }

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
