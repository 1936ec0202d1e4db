// Package retry retries provider calls that fail with transient errors,
// backing off exponentially between attempts.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts. The first call counts as attempt 1.
	MaxAttempts int `yaml:"max_attempts" validate:"gte=1"`

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration `yaml:"max_delay"`

	// Multiplier is the exponential backoff multiplier.
	Multiplier float64 `yaml:"multiplier"`

	// Jitter randomizes each delay by up to this fraction in either direction.
	Jitter float64 `yaml:"jitter" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the configuration used for manuscript analysis calls:
// 4 attempts starting at 1s, doubling up to 30s, with 10% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  4,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Disabled returns a configuration that makes a single attempt.
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Delay returns the backoff before retry number attempt (0-indexed):
// min(MaxDelay, InitialDelay * Multiplier^attempt), then jittered.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}
