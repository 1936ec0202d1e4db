package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, Config{
		MaxAttempts:  4,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}, DefaultConfig())
	assert.Equal(t, 1, Disabled().MaxAttempts)
}

func TestConfig_Delay(t *testing.T) {
	base := Config{
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     3 * time.Second,
		Multiplier:   3.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{-2, 250 * time.Millisecond},
		{0, 250 * time.Millisecond},
		{1, 750 * time.Millisecond},
		{2, 2250 * time.Millisecond},
		{3, 3 * time.Second},
		{20, 3 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, base.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestConfig_DelayJitterBounds(t *testing.T) {
	cfg := Config{InitialDelay: 2 * time.Second, MaxDelay: time.Minute, Multiplier: 2, Jitter: 0.25}

	seen := map[time.Duration]struct{}{}
	for range 200 {
		d := cfg.Delay(1)
		require.GreaterOrEqual(t, d, 3*time.Second)
		require.LessOrEqual(t, d, 5*time.Second)
		seen[d] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}

func TestConfig_YAML(t *testing.T) {
	var cfg Config
	err := yaml.Unmarshal([]byte("max_attempts: 6\ninitial_delay: 500ms\nmax_delay: 1m\nmultiplier: 1.5\njitter: 0\n"), &cfg)
	require.NoError(t, err)
	assert.Equal(t, Config{
		MaxAttempts:  6,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     time.Minute,
		Multiplier:   1.5,
	}, cfg)
}
