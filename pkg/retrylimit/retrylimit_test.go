package retrylimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  4,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := WithRetryConfig(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil, fastConfig())

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetryStopsOnFatal(t *testing.T) {
	sentinel := errors.New("no results")
	attempts := 0

	err := WithRetryConfig(context.Background(), func() error {
		attempts++
		return Fatal(sentinel)
	}, nil, fastConfig())

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts, "fatal errors must not be retried")
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetryConfig(context.Background(), func() error {
		attempts++
		return errors.New("always down")
	}, nil, fastConfig())

	require.Error(t, err)
	assert.ErrorContains(t, err, "max attempts")
	assert.Equal(t, 4, attempts)
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetryConfig(ctx, func() error {
		return errors.New("transient")
	}, nil, fastConfig())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdaptiveLimiterAdjusts(t *testing.T) {
	lim := NewAdaptiveLimiter(10, 1, 20, 2, 0.5)
	require.Equal(t, 10.0, lim.CurrentLimit())

	lim.Failure()
	assert.Equal(t, 5.0, lim.CurrentLimit())

	lim.Failure()
	assert.Equal(t, 2.5, lim.CurrentLimit())

	// Success shortly after an error must not speed back up.
	lim.Success()
	assert.Equal(t, 2.5, lim.CurrentLimit())
}

func TestAdaptiveLimiterBounds(t *testing.T) {
	lim := NewAdaptiveLimiter(2, 1, 4, 10, 0.01)

	lim.Failure()
	assert.Equal(t, 1.0, lim.CurrentLimit(), "clamped to min")

	lim.lastError = time.Time{}
	lim.Success()
	assert.Equal(t, 4.0, lim.CurrentLimit(), "clamped to max")
}
