// Package retry provides a policy-parameterized retry executor with
// exponential backoff and optional jitter.
//
// Retryability is decided by the error taxonomy, not by the call site: the
// executor classifies every failure through the errors package and retries
// only codes whose Retryable flag is set.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/newsfold/linkresolver/internal/core/errors"
)

// Policy configures backoff behavior for one consumer.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      bool
}

// Patient is tuned for generative-model calls: long base delay, tolerant of
// rate limiting, few attempts.
func Patient() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2,
		Jitter:      true,
	}
}

// Brisk is tuned for redirect hops: short delay, at most two attempts.
func Brisk() Policy {
	return Policy{
		MaxAttempts: 2,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    time.Second,
		Multiplier:  2,
		Jitter:      true,
	}
}

// None disables retries for strictly optional fetches where silent
// degradation beats added latency.
func None() Policy {
	return Policy{MaxAttempts: 1}
}

// Do invokes op, retrying classified-retryable failures per policy.
// The final error is always a taxonomy error.
func Do[T any](ctx context.Context, policy Policy, opContext string, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var lastErr *errors.Error

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, delayFor(policy, attempt-1)); err != nil {
				return zero, errors.Wrap(errors.CodeNetworkTimeout, fmt.Errorf("retry interrupted: %w", err), opContext)
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = errors.Classify(err, opContext)
		if !lastErr.Retryable() {
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// delayFor computes min(base * multiplier^attempt, max), randomized ±50%
// when jitter is enabled.
func delayFor(policy Policy, attempt int) time.Duration {
	multiplier := policy.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	delay := float64(policy.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= multiplier
	}

	if policy.MaxDelay > 0 && delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}

	if policy.Jitter {
		delay *= 0.5 + rand.Float64() //nolint:gosec // jitter does not need crypto randomness
	}

	return time.Duration(delay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
