package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
)

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	attempts := 0

	err := Retry(context.Background(), func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	tests := []struct {
		name             string
		failUntilN       int
		maxRetries       int
		expectedAttempts int
		shouldSucceed    bool
	}{
		{"success on second attempt", 2, 3, 2, true},
		{"success on last retry", 4, 3, 4, true},
		{"fail all attempts", 10, 3, 4, false},
		{"no retries configured", 10, 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0

			err := Retry(context.Background(), func() error {
				attempts++
				if attempts < tt.failUntilN {
					return errors.New("temporary failure")
				}
				return nil
			}, WithMaxRetries(tt.maxRetries), WithInitialDelay(time.Millisecond))

			if tt.shouldSucceed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
			assert.Equal(t, tt.expectedAttempts, attempts)
		})
	}
}

func TestRetry_OnlyRetryableErrors(t *testing.T) {
	attempts := 0
	authErr := apperrors.NewAuthFailure("bad credentials", nil)

	err := Retry(context.Background(), func() error {
		attempts++
		return authErr
	}, WithRetryIf(apperrors.IsRetryable), WithInitialDelay(time.Millisecond))

	assert.Same(t, authErr, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ExhaustedKeepsErrorChain(t *testing.T) {
	err := Retry(context.Background(), func() error {
		return apperrors.NewRateLimitedError("slow down")
	}, WithRetryIf(apperrors.IsRetryable), WithMaxRetries(2), WithInitialDelay(time.Millisecond))

	assert.True(t, apperrors.IsRateLimited(err))
	assert.Contains(t, err.Error(), "retry failed after 3 attempts")
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Retry(ctx, func() error {
		attempts++
		return errors.New("always fails")
	}, WithMaxRetries(5), WithInitialDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetry_NilFunction(t *testing.T) {
	assert.Error(t, Retry(context.Background(), nil))
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoffDelay(1, 100*time.Millisecond, time.Second, 2))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(3, 100*time.Millisecond, time.Second, 2))
	assert.Equal(t, time.Second, backoffDelay(10, 100*time.Millisecond, time.Second, 2))
}
