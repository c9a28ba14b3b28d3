// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ashendes/retail-api/internal/store"
	log "github.com/sirupsen/logrus"
)

// Config is centralized process configuration
type Config struct {
	ServiceName string
	HTTPAddr    string
	LogLevel    log.Level

	Database    store.Config
	AutoMigrate bool

	Auth AuthConfig
}

// AuthConfig selects and tunes bearer token validation.
// A Domain enables RS256 with keys from the tenant's JWKS endpoint;
// a SigningSecret enables HS256.
type AuthConfig struct {
	Domain        string
	Audience      string
	Issuer        string
	SigningSecret string
	JWKSCacheTTL  time.Duration
	Leeway        time.Duration
}

// JWKSURL returns the key set location for the configured domain
func (a AuthConfig) JWKSURL() string {
	return "https://" + a.Domain + "/.well-known/jwks.json"
}

// Load reads the environment, applies defaults and validates the result
func Load() (Config, error) {
	level, err := log.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	db, err := LoadDatabase()
	if err != nil {
		return Config{}, err
	}
	ttl, err := envDuration("JWKS_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	leeway, err := envDuration("AUTH_LEEWAY", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		ServiceName: getEnv("SERVICE_NAME", "retail-service"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		LogLevel:    level,
		Database:    db,
		AutoMigrate: envBool("DB_AUTO_MIGRATE", false),
		Auth: AuthConfig{
			Domain:        strings.TrimSuffix(os.Getenv("AUTH0_DOMAIN"), "/"),
			Audience:      os.Getenv("API_AUDIENCE"),
			Issuer:        os.Getenv("AUTH_ISSUER"),
			SigningSecret: os.Getenv("AUTH_SIGNING_SECRET"),
			JWKSCacheTTL:  ttl,
			Leeway:        leeway,
		},
	}

	// Auth0 issues tokens with the tenant URL as issuer
	if cfg.Auth.Issuer == "" && cfg.Auth.Domain != "" {
		cfg.Auth.Issuer = "https://" + cfg.Auth.Domain + "/"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDatabase reads only the DB_* and DATABASE_URL settings
func LoadDatabase() (store.Config, error) {
	maxOpen, err := envInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return store.Config{}, err
	}
	maxIdle, err := envInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return store.Config{}, err
	}
	lifetime, err := envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return store.Config{}, err
	}

	db := store.Config{
		Driver:          strings.ToLower(getEnv("DB_DRIVER", store.DriverPostgres)),
		DSN:             os.Getenv("DATABASE_URL"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: lifetime,
	}

	switch db.Driver {
	case store.DriverPostgres, store.DriverMySQL:
		if db.DSN == "" {
			return store.Config{}, errors.New("DATABASE_URL is required")
		}
	case store.DriverMemory:
	default:
		return store.Config{}, fmt.Errorf("DB_DRIVER %q is not supported", db.Driver)
	}
	return db, nil
}

func (c Config) validate() error {
	if c.Auth.Domain == "" && c.Auth.SigningSecret == "" {
		return errors.New("one of AUTH0_DOMAIN or AUTH_SIGNING_SECRET is required")
	}
	if c.Auth.Audience == "" {
		return errors.New("API_AUDIENCE is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return n, nil
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}
