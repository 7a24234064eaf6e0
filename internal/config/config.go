// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Translation providers.
const (
	TranslateHTTP   = "http"
	TranslateOpenAI = "openai"
	TranslateNone   = "none"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BackendURL    string `env:"MEDIASITE_BACKEND_URL,required"`
	DBPath        string `env:"MEDIASITE_DB_PATH" envDefault:"./data/mediasite.db"`
	SessionSecret string `env:"MEDIASITE_SESSION_SECRET,required"`
	ServerHost    string `env:"MEDIASITE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"MEDIASITE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"MEDIASITE_ENV" envDefault:"development"`
	LogLevel      string `env:"MEDIASITE_LOG_LEVEL" envDefault:"info"`

	// Runtime translation of database content
	TranslateProvider string  `env:"MEDIASITE_TRANSLATE_PROVIDER" envDefault:"http"`
	TranslateURL      string  `env:"MEDIASITE_TRANSLATE_URL" envDefault:"https://api.mymemory.translated.net/get"`
	TranslateRPS      float64 `env:"MEDIASITE_TRANSLATE_RPS" envDefault:"2"`
	OpenAIAPIKey      string  `env:"MEDIASITE_OPENAI_API_KEY"`
	OpenAIModel       string  `env:"MEDIASITE_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIBaseURL     string  `env:"MEDIASITE_OPENAI_BASE_URL"`

	// Cache configuration
	RedisURL     string `env:"MEDIASITE_REDIS_URL"`                             // Optional Redis URL for distributed caching
	CachePrefix  string `env:"MEDIASITE_CACHE_PREFIX" envDefault:"mediasite:"` // Redis key prefix
	CacheTTL     int    `env:"MEDIASITE_CACHE_TTL" envDefault:"86400"`         // Translation memo TTL in seconds
	CacheMaxSize int    `env:"MEDIASITE_CACHE_MAX_SIZE" envDefault:"10000"`    // Max memory cache entries

	// Public site crawling
	SiteURL           string `env:"MEDIASITE_SITE_URL"` // Absolute base URL for the sitemap; derived from requests when empty
	RobotsDisallowAll bool   `env:"MEDIASITE_ROBOTS_DISALLOW_ALL"`

	AuthCookie         string        `env:"MEDIASITE_AUTH_COOKIE" envDefault:"token"`
	RequestTimeout     time.Duration `env:"MEDIASITE_REQUEST_TIMEOUT" envDefault:"30s"`
	EventRetentionDays int           `env:"MEDIASITE_EVENT_RETENTION_DAYS" envDefault:"30"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("MEDIASITE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	return cfg, nil
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SessionSecret) < MinSessionSecretLength {
		errs = append(errs, fmt.Errorf("MEDIASITE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret)))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak && !c.IsDevelopment() {
			errs = append(errs, errors.New("MEDIASITE_SESSION_SECRET is a known default value and must not be used; "+
				"generate a secure secret with: openssl rand -base64 32"))
		}
	}

	if u, err := url.Parse(c.BackendURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("MEDIASITE_BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL))
	}

	if c.SiteURL != "" {
		if u, err := url.Parse(c.SiteURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("MEDIASITE_SITE_URL must be an absolute http(s) URL, got %q", c.SiteURL))
		}
	}

	switch c.TranslateProvider {
	case TranslateHTTP:
		if c.TranslateURL == "" {
			errs = append(errs, errors.New("MEDIASITE_TRANSLATE_URL is required for the http translator"))
		}
	case TranslateOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("MEDIASITE_OPENAI_API_KEY is required for the openai translator"))
		}
	case TranslateNone:
	default:
		errs = append(errs, fmt.Errorf("MEDIASITE_TRANSLATE_PROVIDER must be http, openai or none, got %q", c.TranslateProvider))
	}

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("MEDIASITE_SERVER_PORT out of range: %d", c.ServerPort))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("MEDIASITE_REQUEST_TIMEOUT must be positive"))
	}
	if c.AuthCookie == "" {
		errs = append(errs, errors.New("MEDIASITE_AUTH_COOKIE must not be empty"))
	}

	return errors.Join(errs...)
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
