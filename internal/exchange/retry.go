package exchange

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/ducminhle1904/crypto-exchange-adapters/internal/safety"
)

// RetryConfig holds configuration for retrying transient failures. The zero
// value disables retries.
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries" json:"maxRetries"`
	InitialDelay  time.Duration `yaml:"initial_delay" json:"initialDelay"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"maxDelay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoffFactor"`
	JitterEnabled bool          `yaml:"jitter" json:"jitterEnabled"`
}

// DefaultRetryConfig returns the retry policy used when a caller opts in
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// retryWithConfig runs fn until it succeeds or the attempts are exhausted.
// Non-transient errors and an open circuit breaker end the loop at once.
func (c *Client) retryWithConfig(ctx context.Context, fn RetryableFunc, config RetryConfig) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == config.MaxRetries || errors.Is(err, safety.ErrCircuitOpen) || !IsRetryableError(err) {
			break
		}

		delay := calculateDelay(attempt, config)
		c.log.WithField("attempt", attempt+1).WithField("delay", delay.String()).
			Debug("retrying request after transient failure")
		c.recordRetry()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// calculateDelay calculates the delay for a retry attempt with exponential backoff
func calculateDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	factor := config.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	if attempt > 0 {
		delay = time.Duration(float64(delay) * math.Pow(factor, float64(attempt)))
	}

	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	if config.JitterEnabled {
		jitter := time.Duration(float64(delay) * 0.1 * (2*rand.Float64() - 1))
		delay += jitter
	}

	return delay
}
