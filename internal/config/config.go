// Package config loads lectio configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"
	// EnvDevelopment represents the development environment.
	EnvDevelopment = "development"

	// CSPStrict selects the production Content Security Policy.
	CSPStrict = "strict"
)

// Config holds all application configuration.
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Client settings
	APIURL           string `envconfig:"LECTIO_API_URL" default:"http://localhost:8080"`
	APIToken         string `envconfig:"LECTIO_API_TOKEN"`
	APIRetries       int    `envconfig:"LECTIO_API_RETRIES" default:"3"`
	SampleRate       int    `envconfig:"LECTIO_SAMPLE_RATE" default:"16000"`
	HistogramBuckets int    `envconfig:"LECTIO_HISTOGRAM_BUCKETS" default:"10"`
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`

	// Server settings
	Port           string   `envconfig:"PORT" default:"8080"`
	DBPath         string   `envconfig:"DB_PATH" default:"lectio.db"`
	ScriptureCSV   string   `envconfig:"SCRIPTURE_CSV"`
	StaticDir      string   `envconfig:"STATIC_DIR" default:"./public"`
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.1"`

	// Security settings
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`
}

// LoadConfig loads configuration from the given .env files (default: .env)
// and environment variables. Missing .env files are ignored.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		// Not an error if file doesn't exist (expected in production)
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to load .env file", "error", err)
		}
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	var problems []string

	if c.APIRetries < 0 {
		problems = append(problems, "LECTIO_API_RETRIES must not be negative")
	}

	if c.SampleRate <= 0 {
		problems = append(problems, "LECTIO_SAMPLE_RATE must be positive")
	}

	if c.HistogramBuckets < 1 {
		problems = append(problems, "LECTIO_HISTOGRAM_BUCKETS must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string) string {
	if mode == CSPStrict {
		return "default-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"script-src 'self'; " +
			"img-src 'self' data:; " +
			"media-src 'self' blob:; " +
			"object-src 'none'; " +
			"base-uri 'self'; " +
			"form-action 'self'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:; " +
		"media-src 'self' blob:"
}
