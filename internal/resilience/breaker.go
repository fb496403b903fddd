// Package resilience guards calls to slow or flaky sinks such as the receipt store.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var nopLogger = zerolog.Nop()

// ErrOpen is returned when the breaker refuses a call.
var ErrOpen = errors.New("resilience: breaker open")

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Options configures a Breaker. Zero values pick the defaults noted per field.
type Options struct {
	Sink         string        // metric label, "default" when empty
	MinCalls     int           // calls observed before the ratio counts, default 1
	FailureRatio float64       // opens at or above this ratio, default 0.5
	OpenFor      time.Duration // cool-off before a probe, default 30s
	Attempts     int           // tries per Do, default 1
	Backoff      time.Duration // base delay between tries, default 100ms
	Jitter       float64       // fraction of the delay, 0 disables
	Logger       *zerolog.Logger
}

// Breaker is a failure-ratio circuit breaker with bounded retries.
type Breaker struct {
	opts Options

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
	now       func() time.Time
}

// New builds a closed breaker.
func New(opts Options) *Breaker {
	opts.Sink = strings.TrimSpace(opts.Sink)
	if opts.Sink == "" {
		opts.Sink = "default"
	}
	if opts.MinCalls <= 0 {
		opts.MinCalls = 1
	}
	if opts.FailureRatio <= 0 {
		opts.FailureRatio = 0.5
	}
	if opts.FailureRatio > 1 {
		opts.FailureRatio = 1
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 30 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 100 * time.Millisecond
	}
	b := &Breaker{opts: opts, state: Closed, now: time.Now}
	b.recordStateLocked()
	return b
}

// State reports the current position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Do runs fn, retrying failures with exponential backoff while the breaker allows it.
// Context errors are returned as is and never count against the sink.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= b.opts.Attempts; attempt++ {
		if !b.allow(ctx) {
			if BreakerRejected != nil {
				BreakerRejected.WithLabelValues(b.opts.Sink).Inc()
			}
			if lastErr != nil {
				return errors.Join(ErrOpen, lastErr)
			}
			return ErrOpen
		}
		err := fn(ctx)
		if err == nil {
			b.report(ctx, true)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		b.report(ctx, false)
		lastErr = err
		if attempt == b.opts.Attempts {
			break
		}
		timer := time.NewTimer(Backoff(b.opts.Backoff, attempt, b.opts.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (b *Breaker) allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.opts.OpenFor {
		b.moveLocked(ctx, HalfOpen)
		return true
	}
	return false
}

func (b *Breaker) report(ctx context.Context, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if success {
			b.moveLocked(ctx, Closed)
		} else {
			b.moveLocked(ctx, Open)
		}
		return
	}

	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.opts.MinCalls {
		return
	}
	if float64(b.failures)/float64(total) >= b.opts.FailureRatio {
		b.moveLocked(ctx, Open)
	} else if total > b.opts.MinCalls*2 {
		// halve the window so old outcomes fade
		b.successes = int(math.Ceil(float64(b.successes) * 0.5))
		b.failures = int(math.Ceil(float64(b.failures) * 0.5))
	}
}

// Backoff returns base doubled per attempt, spread by jitterPct (0.2 == 20%).
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if jitterPct <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * float64(d) * jitterPct
	return d + time.Duration(delta)
}

func (b *Breaker) moveLocked(ctx context.Context, next State) {
	prev := b.state
	b.state = next
	switch next {
	case Open:
		b.openedAt = b.now()
	case Closed:
		b.openedAt = time.Time{}
	}
	b.failures = 0
	b.successes = 0
	b.recordStateLocked()
	if prev == next {
		return
	}
	if BreakerTransitions != nil {
		BreakerTransitions.WithLabelValues(b.opts.Sink, prev.String(), next.String()).Inc()
	}
	evt := b.loggerFor(ctx).Info().Str("sink", b.opts.Sink).Str("from_state", prev.String()).Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}

func (b *Breaker) recordStateLocked() {
	if BreakerState == nil {
		return
	}
	BreakerState.WithLabelValues(b.opts.Sink).Set(float64(b.state))
}

func (b *Breaker) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	if b.opts.Logger != nil {
		return b.opts.Logger
	}
	return &nopLogger
}
