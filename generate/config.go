package generate

import (
	"context"
	"fmt"
	"strings"
)

// Backends a generator can use.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendProxy  = "proxy"
)

// Config selects and configures a backend.
type Config struct {
	Backend           string `yaml:"backend"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"-"`
	BaseURL           string `yaml:"base_url"` // OpenAI-compatible base, Gemini endpoint, or proxy URL
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	MaxAttempts       int    `yaml:"max_attempts"` // 0 keeps the default retry policy
	Language          string `yaml:"language"`     // narration language
}

// DefaultConfig returns the default generator configuration.
func DefaultConfig() Config {
	return Config{
		Backend:           BackendGemini,
		RequestsPerMinute: 10,
		Language:          "ko",
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BackendGemini, BackendOpenAI:
	case BackendProxy:
		if c.BaseURL == "" {
			return fmt.Errorf("proxy backend needs a base_url")
		}
	default:
		return fmt.Errorf("invalid backend %q: must be one of gemini, openai, proxy", c.Backend)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute cannot be negative, got %d", c.RequestsPerMinute)
	}
	if c.MaxAttempts < 0 || c.MaxAttempts > 10 {
		return fmt.Errorf("max_attempts must be between 0 and 10, got %d", c.MaxAttempts)
	}
	return nil
}

// NeedsKey reports whether the backend needs a local API key.
func (c Config) NeedsKey() bool {
	return c.Backend != BackendProxy
}

// FromConfig builds a generator. A backend that needs a key but has none
// yields an uninitialized generator.
func FromConfig(ctx context.Context, cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []Option{
		WithPrompts(PromptsFor(cfg.Language)),
		WithRateLimit(cfg.RequestsPerMinute),
	}
	if cfg.MaxAttempts > 0 {
		retry := DefaultRetryConfig()
		retry.MaxAttempts = cfg.MaxAttempts
		opts = append(opts, WithRetry(retry))
	}

	if cfg.NeedsKey() && cfg.APIKey == "" {
		return New(nil, opts...), nil
	}

	var backend Backend
	switch cfg.Backend {
	case BackendGemini:
		g, err := NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		backend = g
	case BackendOpenAI:
		backend = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case BackendProxy:
		backend = NewProxy(cfg.BaseURL, nil)
	}
	return New(backend, opts...), nil
}
