package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	ServiceVersion = "1.0.0"

	DefaultAPIBaseURL = "https://esteh-backend-production.up.railway.app/api"
	DefaultTimeout    = 15 * time.Second
)

// Config holds everything the console process needs at startup.
type Config struct {
	ServiceName string
	Environment string
	Port        string

	APIBaseURL  string
	APIToken    string
	APIUsername string
	APIPassword string
	APITimeout  time.Duration

	// OutletID pins the active outlet. Zero means "resolve from the logged-in user".
	OutletID int64

	// OtlpEndpoint empty disables trace and metric export.
	OtlpEndpoint string
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServiceName:  getEnv("SERVICE_NAME", "stock-console"),
		Environment:  getEnv("APP_ENV", "production"),
		Port:         getEnv("PORT", "8080"),
		APIBaseURL:   getEnv("API_BASE_URL", DefaultAPIBaseURL),
		APIToken:     os.Getenv("API_TOKEN"),
		APIUsername:  os.Getenv("API_USERNAME"),
		APIPassword:  os.Getenv("API_PASSWORD"),
		OtlpEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	base, err := url.Parse(cfg.APIBaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", cfg.APIBaseURL)
	}

	timeout, err := time.ParseDuration(getEnv("API_TIMEOUT", DefaultTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("API_TIMEOUT must be positive, got %s", timeout)
	}
	cfg.APITimeout = timeout

	if raw := os.Getenv("OUTLET_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("OUTLET_ID must be a positive integer, got %q", raw)
		}
		cfg.OutletID = id
	}

	if (cfg.APIUsername == "") != (cfg.APIPassword == "") {
		return nil, fmt.Errorf("API_USERNAME and API_PASSWORD must be set together")
	}

	return cfg, nil
}

// IsDevelopment reports whether human-readable logs should be used.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
