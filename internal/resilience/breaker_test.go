package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drinkpos/internal/resilience"
)

var errSink = errors.New("sink down")

func TestBreakerOpensAndRecovers(t *testing.T) {
	resilience.BreakerState.Reset()
	resilience.BreakerTransitions.Reset()
	resilience.BreakerRejected.Reset()

	b := resilience.New(resilience.Options{Sink: "receipts-test", MinCalls: 2, OpenFor: 20 * time.Millisecond})
	ctx := context.Background()
	fail := func(context.Context) error { return errSink }

	require.ErrorIs(t, b.Do(ctx, fail), errSink)
	require.ErrorIs(t, b.Do(ctx, fail), errSink)
	require.Equal(t, resilience.Open, b.State())
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerState.WithLabelValues("receipts-test")))

	require.ErrorIs(t, b.Do(ctx, func(context.Context) error { return nil }), resilience.ErrOpen)
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerRejected.WithLabelValues("receipts-test")))

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, b.Do(ctx, func(context.Context) error { return nil }))
	require.Equal(t, resilience.Closed, b.State())

	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues("receipts-test", "closed", "open")))
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues("receipts-test", "open", "half_open")))
	require.Equal(t, 1.0, testutil.ToFloat64(resilience.BreakerTransitions.WithLabelValues("receipts-test", "half_open", "closed")))
}

func TestBreakerRetriesUntilSuccess(t *testing.T) {
	b := resilience.New(resilience.Options{Sink: "retry-test", MinCalls: 10, Attempts: 3, Backoff: time.Millisecond})
	calls := 0
	err := b.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errSink
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, resilience.Closed, b.State())
}

func TestBreakerStopsOnCanceledContext(t *testing.T) {
	b := resilience.New(resilience.Options{Sink: "cancel-test", Attempts: 5, Backoff: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := b.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errSink
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
	require.Equal(t, resilience.Closed, b.State())
}

func TestBackoffWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, resilience.Backoff(base, 1, 0))
	require.Equal(t, base*4, resilience.Backoff(base, 3, 0))

	d := resilience.Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-base*2/5)
	require.LessOrEqual(t, d, base*2+base*2/5)
}
