// Package config reads the function's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const EnvLocal = "LOCAL"

// Config holds the function's start-up settings, read from the environment.
type Config struct {
	Env  string
	Port string
	// Region is the AWS region; empty keeps the SDK's default resolution.
	Region string

	// StripeSecretID names the Secrets Manager secret holding the API key.
	StripeSecretID string
	// StripeSecretKeyName selects a field when the secret is a JSON object.
	StripeSecretKeyName string
	// StripeSecretEnv is the variable read instead of Secrets Manager in local mode.
	StripeSecretEnv string
	StripeAPIURL    string
	StripeTimeout   time.Duration

	LogLevel  string
	LogFormat string

	SentryDSN string
}

func Default() *Config {
	return &Config{
		Env:             "prod",
		Port:            "8080",
		StripeSecretID:  "STRIPE_SECRET",
		StripeSecretEnv: "STRIPE_SECRET",
		StripeTimeout:   30 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Local reports whether the function runs as a plain web server.
func (c *Config) Local() bool {
	return strings.EqualFold(c.Env, EnvLocal)
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads the configuration from the environment. In local mode a .env
// file in the working directory is loaded first; variables already set win.
func Load() (*Config, error) {
	if strings.EqualFold(os.Getenv("ENV"), EnvLocal) {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := Default()
	setString(&cfg.Env, "ENV")
	setString(&cfg.Port, "PORT")
	setString(&cfg.Region, "AWS_REGION")
	setString(&cfg.StripeSecretID, "STRIPE_SECRET_ID")
	setString(&cfg.StripeSecretKeyName, "STRIPE_SECRET_KEY_NAME")
	setString(&cfg.StripeAPIURL, "STRIPE_API_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.SentryDSN, "SENTRY_DSN")

	if v := os.Getenv("STRIPE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("STRIPE_TIMEOUT: %w", err)
		}
		cfg.StripeTimeout = d
	}

	if cfg.Local() && os.Getenv("LOG_FORMAT") == "" {
		cfg.LogFormat = "text"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.StripeTimeout < 0 {
		return fmt.Errorf("STRIPE_TIMEOUT must not be negative, got %s", c.StripeTimeout)
	}
	if !c.Local() && c.StripeSecretID == "" {
		return errors.New("STRIPE_SECRET_ID is required")
	}
	return nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
