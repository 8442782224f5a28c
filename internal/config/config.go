// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	TTL          time.Duration `yaml:"ttl"`
	CookieName   string        `yaml:"cookie_name"`
	CookieDomain string        `yaml:"cookie_domain"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type SecurityConfig struct {
	// EncryptionKey is stretched to an AES-256 key, any length works.
	EncryptionKey string `yaml:"encryption_key"`
}

type LedgerConfig struct {
	// Timezone decides which calendar day "today" is.
	Timezone             string `yaml:"timezone"`
	DefaultPaymentMethod string `yaml:"default_payment_method"`
	ExpiringWithinDays   int    `yaml:"expiring_within_days"`
}

type ImportConfig struct {
	MaxRows         int           `yaml:"max_rows"`
	RateLimit       int           `yaml:"rate_limit"` // uploads per window per gym
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
	LockTTL         time.Duration `yaml:"lock_ttl"`
}

type SchedulerConfig struct {
	GaugeInterval time.Duration `yaml:"gauge_interval"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Security  SecurityConfig  `yaml:"security"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Import    ImportConfig    `yaml:"import"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Locale    string          `yaml:"locale"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies environment overrides
// and defaults, and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Security.EncryptionKey == "" {
		return nil, errors.New("security.encryption_key is required")
	}
	if _, err := time.LoadLocation(cfg.Ledger.Timezone); err != nil {
		return nil, fmt.Errorf("ledger.timezone: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		cfg.Security.EncryptionKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if cfg.HTTP.MaxUploadBytes <= 0 {
		cfg.HTTP.MaxUploadBytes = 10 << 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Auth.TTL <= 0 {
		cfg.Auth.TTL = 12 * time.Hour
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "gym_session"
	}
	if cfg.Ledger.Timezone == "" {
		cfg.Ledger.Timezone = "Asia/Seoul"
	}
	if cfg.Ledger.DefaultPaymentMethod == "" {
		cfg.Ledger.DefaultPaymentMethod = "card"
	}
	if cfg.Ledger.ExpiringWithinDays <= 0 {
		cfg.Ledger.ExpiringWithinDays = 7
	}
	if cfg.Import.MaxRows <= 0 {
		cfg.Import.MaxRows = 2000
	}
	if cfg.Import.RateLimit <= 0 {
		cfg.Import.RateLimit = 5
	}
	if cfg.Import.RateLimitWindow <= 0 {
		cfg.Import.RateLimitWindow = time.Minute
	}
	if cfg.Import.LockTTL <= 0 {
		cfg.Import.LockTTL = 2 * time.Minute
	}
	if cfg.Scheduler.GaugeInterval <= 0 {
		cfg.Scheduler.GaugeInterval = 5 * time.Minute
	}
	if cfg.Locale == "" {
		cfg.Locale = "ko"
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}

// Location returns the ledger timezone. Parse has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ledger.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
