package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errBackend = errors.New("backend down")

func failing() error { return errBackend }
func ok() error      { return nil }

func newTestBreaker(t *testing.T, s Settings) *Breaker {
	return New("test", s, zaptest.NewLogger(t))
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := newTestBreaker(t, Settings{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute, HalfOpenProbes: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := b.Execute(ctx, failing)
		assert.ErrorIs(t, err, errBackend)
	}
	assert.Equal(t, StateOpen, b.State())

	// Open breaker sheds without calling through.
	called := false
	err := b.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := newTestBreaker(t, Settings{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute, HalfOpenProbes: 1})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	require.Error(t, b.Execute(ctx, failing))
	require.NoError(t, b.Execute(ctx, ok))
	require.Error(t, b.Execute(ctx, failing))
	require.Error(t, b.Execute(ctx, failing))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := newTestBreaker(t, Settings{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 10 * time.Millisecond, HalfOpenProbes: 1})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	require.Equal(t, StateOpen, b.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Execute(ctx, ok))
	require.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Execute(ctx, ok))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := newTestBreaker(t, Settings{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond, HalfOpenProbes: 1})
	ctx := context.Background()

	require.Error(t, b.Execute(ctx, failing))
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	require.Error(t, b.Execute(ctx, failing))
	assert.Equal(t, StateOpen, b.State())
}
