package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the server settings. It is read from the environment, after
// loading a .env file from the working directory if there is one.
type Config struct {
	Listen            string        `env:"DOCENT_LISTEN" envDefault:":8080"`
	APIKey            string        `env:"API_KEY"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	Model             string        `env:"DOCENT_MODEL"`
	RequestsPerMinute int           `env:"DOCENT_REQUESTS_PER_MINUTE" envDefault:"30"`
	ShareDir          string        `env:"DOCENT_SHARE_DIR"`
	ShutdownTimeout   time.Duration `env:"DOCENT_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MetricsEnabled    bool          `env:"DOCENT_METRICS" envDefault:"true"`
}

// LoadConfig reads the configuration.
func LoadConfig() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return cfg, fmt.Errorf("failed to load server config: %w", err)
	}
	if cfg.RequestsPerMinute < 0 {
		return cfg, fmt.Errorf("DOCENT_REQUESTS_PER_MINUTE cannot be negative, got %d", cfg.RequestsPerMinute)
	}
	return cfg, nil
}

// Key returns the upstream API key, preferring API_KEY.
func (c Config) Key() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	return c.GeminiAPIKey
}
