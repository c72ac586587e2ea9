// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultMapsBaseURL is the directions endpoint used when MAPS_BASE_URL is unset.
const DefaultMapsBaseURL = "https://www.google.com/maps/dir/"

// Config holds all application configuration
type Config struct {
	API      APIConfig
	Cache    CacheConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Security SecurityConfig
	Maps     MapsConfig
	Logging  LoggingConfig
}

// APIConfig describes the remote backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CacheConfig controls the read cache.
type CacheConfig struct {
	TTL time.Duration
}

// SessionConfig selects durable storage for the signed-in user.
type SessionConfig struct {
	Backend  string // postgres, redis
	DeviceID string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string // Full PostgreSQL URL
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SecurityConfig holds identity token settings.
type SecurityConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MapsConfig holds the directions endpoint.
type MapsConfig struct {
	BaseURL string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load reads config/local.env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load("config/local.env")
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadAPI(); err != nil {
		return nil, fmt.Errorf("load api config: %w", err)
	}
	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}
	if err := cfg.loadRedis(); err != nil {
		return nil, fmt.Errorf("load redis config: %w", err)
	}
	if err := cfg.loadSecurity(); err != nil {
		return nil, fmt.Errorf("load security config: %w", err)
	}
	if err := cfg.loadCache(); err != nil {
		return nil, fmt.Errorf("load cache config: %w", err)
	}
	cfg.loadSession()
	cfg.Maps.BaseURL = getEnvOrDefault("MAPS_BASE_URL", DefaultMapsBaseURL)
	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvOrDefault("LOG_FORMAT", "text")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadAPI() error {
	c.API.BaseURL = strings.TrimRight(os.Getenv("TORIA_API_BASE_URL"), "/")
	timeout, err := getDurationOrDefault("TORIA_API_TIMEOUT", 30*time.Second)
	if err != nil {
		return err
	}
	c.API.Timeout = timeout
	return nil
}

func (c *Config) loadCache() error {
	ttl, err := getDurationOrDefault("TORIA_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return err
	}
	c.Cache.TTL = ttl
	return nil
}

func (c *Config) loadSession() {
	c.Session.Backend = strings.ToLower(getEnvOrDefault("SESSION_BACKEND", "postgres"))
	c.Session.DeviceID = os.Getenv("DEVICE_ID")
	if c.Session.DeviceID == "" {
		if host, err := os.Hostname(); err == nil {
			c.Session.DeviceID = host
		}
	}
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")
	if c.Database.URL != "" {
		return nil
	}

	c.Database.Host = getEnvOrDefault("DB_HOST", "localhost")
	c.Database.User = os.Getenv("DB_USER")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = os.Getenv("DB_NAME")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Port = port

	if c.Database.User != "" && c.Database.Name != "" {
		c.Database.URL = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			url.QueryEscape(c.Database.User),
			url.QueryEscape(c.Database.Password),
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
			c.Database.SSLMode,
		)
	}
	return nil
}

func (c *Config) loadRedis() error {
	c.Redis.Addr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	db, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	c.Redis.DB = db
	return nil
}

func (c *Config) loadSecurity() error {
	c.Security.JWTSecret = os.Getenv("JWT_SECRET")
	ttl, err := getDurationOrDefault("TOKEN_TTL", 720*time.Hour)
	if err != nil {
		return err
	}
	c.Security.TokenTTL = ttl
	return nil
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return d.URL
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.API.BaseURL == "" {
		errors = append(errors, "TORIA_API_BASE_URL is required")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, "TORIA_API_BASE_URL must be an absolute URL")
	}
	if c.API.Timeout <= 0 {
		errors = append(errors, "TORIA_API_TIMEOUT must be positive")
	}
	if c.Cache.TTL <= 0 {
		errors = append(errors, "TORIA_CACHE_TTL must be positive")
	}

	// The identity provider's user table lives in Postgres whichever backend
	// holds device sessions.
	if c.Database.URL == "" {
		errors = append(errors, "DATABASE_URL is required (or DB_HOST, DB_USER, DB_NAME)")
	}
	switch c.Session.Backend {
	case "postgres":
	case "redis":
		if c.Redis.Addr == "" {
			errors = append(errors, "REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		errors = append(errors, "SESSION_BACKEND must be one of: postgres, redis")
	}
	if c.Session.DeviceID == "" {
		errors = append(errors, "DEVICE_ID is required when the host name is unavailable")
	}

	if len(c.Security.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
