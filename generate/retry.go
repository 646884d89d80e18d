package generate

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/dgnsrekt/docent/tts"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxAttempts       int           // Maximum number of attempts
	InitialBackoff    time.Duration // Initial backoff duration
	MaxBackoff        time.Duration // Maximum backoff duration
	BackoffMultiplier float64       // Multiplier for exponential backoff
	Jitter            bool          // Whether to add up to 25% jitter
}

// DefaultRetryConfig returns a default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    250 * time.Millisecond,
		MaxBackoff:        4 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Backoff returns the wait before the given retry, counting from zero.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	d := float64(c.InitialBackoff)
	for i := 0; i < attempt; i++ {
		d *= c.BackoffMultiplier
	}
	if c.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	if limit := float64(c.MaxBackoff); d > limit {
		d = limit
	}
	return time.Duration(d)
}

// retry runs fn until it succeeds, fails with an error that is not
// retryable, the attempts run out, or ctx is done.
func retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < max(cfg.MaxAttempts, 1); attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(cfg.Backoff(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}

		lastErr = fn()
		if lastErr == nil || !Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// Retryable reports whether a failed request may succeed if sent again.
// Credential errors and cancellations never are.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch tts.Classify(err) {
	case tts.KindCredentials, tts.KindCanceled:
		return false
	}

	if code := statusCode(err); code != 0 {
		return code == 429 || code >= 500
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"unavailable",
		"network is unreachable",
		"no route to host",
		"deadline exceeded",
		"timeout",
		"resource exhausted",
		"too many requests",
		"rate limit",
		"unexpected eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// statusCode extracts an HTTP status from backend errors, or 0.
func statusCode(err error) int {
	var gerr genai.APIError
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	var gperr *genai.APIError
	if errors.As(err, &gperr) {
		return gperr.Code
	}
	var oerr *openai.APIError
	if errors.As(err, &oerr) {
		return oerr.HTTPStatusCode
	}
	var rerr *openai.RequestError
	if errors.As(err, &rerr) {
		return rerr.HTTPStatusCode
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}
