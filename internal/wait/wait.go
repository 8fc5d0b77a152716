// Package wait implements the polling wait engine every other component uses to
// synchronize with the browser. There are no other polling loops in the harness.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/passbolt-e2e/internal/browser"
	"github.com/xkilldash9x/passbolt-e2e/internal/observability"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// ErrTimeout matches every *TimeoutError through errors.Is.
var ErrTimeout = errors.New("wait timed out")

// Condition is a named predicate. Check returns (false, nil) or an error wrapping
// browser.ErrNoSuchElement for "not yet"; any other error aborts the wait.
type Condition struct {
	Description string
	Selector    string
	Check       func(ctx context.Context) (bool, error)
}

// Func builds a Condition without a selector.
func Func(description string, check func(ctx context.Context) (bool, error)) Condition {
	return Condition{Description: description, Check: check}
}

// TimeoutError reports a condition that never held.
type TimeoutError struct {
	Description string
	Selector    string
	Elapsed     time.Duration
	// Last is the most recent transient error seen while polling, if any.
	Last error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.Elapsed.Round(time.Millisecond), e.Description)
	if e.Selector != "" {
		msg += fmt.Sprintf(" (selector %s)", e.Selector)
	}
	if e.Last != nil {
		msg += ": last error: " + e.Last.Error()
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
func (e *TimeoutError) Unwrap() error        { return e.Last }

type options struct {
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// Option adjusts a single wait.
type Option func(*options)

// WithTimeout overrides the 10s default. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithInterval overrides the 100ms poll interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithLogger routes the engine's debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func resolve(opts []Option) options {
	o := options{timeout: DefaultTimeout, interval: DefaultInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = observability.GetLogger()
	}
	o.logger = o.logger.Named("wait")
	return o
}

// Until evaluates cond until it holds, the timeout elapses, or ctx is done. The
// first evaluation happens immediately and later ones are paced at the configured
// interval.
func Until(ctx context.Context, cond Condition, opts ...Option) error {
	o := resolve(opts)
	limiter := rate.NewLimiter(rate.Every(o.interval), 1)
	limiter.Allow() // drop the initial burst token

	start := time.Now()
	deadline := start.Add(o.timeout)
	var last error
	polls := 0

	for {
		polls++
		ok, err := cond.Check(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			if !errors.Is(err, browser.ErrNoSuchElement) {
				return fmt.Errorf("waiting for %s: %w", cond.Description, err)
			}
			last = err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("waiting for %s: %w", cond.Description, ctx.Err())
		}
		if !time.Now().Before(deadline) {
			terr := &TimeoutError{
				Description: cond.Description,
				Selector:    cond.Selector,
				Elapsed:     time.Since(start),
				Last:        last,
			}
			o.logger.Debug("Condition never held.",
				zap.String("condition", cond.Description),
				zap.String("selector", cond.Selector),
				zap.Int("polls", polls),
				zap.Duration("elapsed", terr.Elapsed))
			return terr
		}
		if err := pause(ctx, limiter); err != nil {
			return fmt.Errorf("waiting for %s: %w", cond.Description, err)
		}
	}
}

// pause blocks until the limiter grants the next evaluation.
func pause(ctx context.Context, l *rate.Limiter) error {
	r := l.Reserve()
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
