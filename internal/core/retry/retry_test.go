package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/newsfold/linkresolver/internal/core/errors"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0

	result, err := Do(context.Background(), fastPolicy(3), "op", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 1, calls)
}

func TestDoRetriesRetryableThenSucceeds(t *testing.T) {
	calls := 0

	result, err := Do(context.Background(), fastPolicy(3), "op", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New(errors.CodeUpstreamServer, "http status 503", "op")
		}

		return 42, nil
	})

	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), fastPolicy(3), "op", func(context.Context) (int, error) {
		calls++
		return 0, errors.New(errors.CodeBadRequest, "http status 404", "op")
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)

	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, errors.CodeBadRequest, code)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), fastPolicy(2), "op", func(context.Context) (int, error) {
		calls++
		return 0, errors.New(errors.CodeNetworkTimeout, "deadline exceeded", "op")
	})

	require.Error(t, err)
	require.Equal(t, 2, calls)
	require.True(t, errors.IsRetryable(err), "final error keeps its retryable code")
}

func TestDoClassifiesPlainErrors(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), fastPolicy(2), "op", func(context.Context) (int, error) {
		calls++
		return 0, stderrors.New("connection reset by peer")
	})

	require.Error(t, err)
	require.Equal(t, 2, calls, "unclassified network errors default to retryable")

	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, errors.CodeNetwork, code)
}

func TestDoCanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, fastPolicy(5), "op", func(context.Context) (int, error) {
		calls++
		cancel()

		return 0, errors.New(errors.CodeNetwork, "flaky", "op")
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDelayForBackoffAndCap(t *testing.T) {
	policy := Policy{
		MaxAttempts: 5,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    40 * time.Millisecond,
		Multiplier:  2,
	}

	require.Equal(t, 10*time.Millisecond, delayFor(policy, 0))
	require.Equal(t, 20*time.Millisecond, delayFor(policy, 1))
	require.Equal(t, 40*time.Millisecond, delayFor(policy, 2))
	require.Equal(t, 40*time.Millisecond, delayFor(policy, 3), "delay is capped at MaxDelay")
}

func TestDelayForJitterBounds(t *testing.T) {
	policy := Policy{
		BaseDelay:  100 * time.Millisecond,
		Multiplier: 2,
		Jitter:     true,
	}

	for i := 0; i < 50; i++ {
		d := delayFor(policy, 0)
		require.GreaterOrEqual(t, d, 50*time.Millisecond)
		require.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
