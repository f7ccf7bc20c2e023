// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingJWTSecret is returned by Load when JWT_SECRET is unset.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort        string
	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	RabbitMQURL    string
	RedisURL       string
	ResetCodeTTL   time.Duration
	AuthRateLimit  int
	CORSOrigins    string
	SeedDemo       bool
	LogLevel       string
	LogFormat      string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=ruangpena port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RESET_CODE_TTL", "10m")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("SEED_DEMO", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		BcryptCost:     v.GetInt("BCRYPT_COST"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		RedisURL:       v.GetString("REDIS_URL"),
		ResetCodeTTL:   v.GetDuration("RESET_CODE_TTL"),
		AuthRateLimit:  v.GetInt("AUTH_RATE_LIMIT"),
		CORSOrigins:    v.GetString("CORS_ORIGINS"),
		SeedDemo:       v.GetBool("SEED_DEMO"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, ErrMissingJWTSecret
	}
	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.AuthRateLimit <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT must be positive, got %d", cfg.AuthRateLimit)
	}
	return cfg, nil
}
