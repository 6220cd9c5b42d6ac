package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when MaxAttempts calls finished without done.
var ErrExhausted = errors.New("poll attempts exhausted")

type Options struct {
	Interval    time.Duration
	MaxInterval time.Duration
	MaxAttempts int // zero means unlimited

	// Retryable decides whether a failed call is worth another attempt.
	// Nil retries every error.
	Retryable func(error) bool
}

// Func is one poll attempt. It reports done when the awaited state has been
// observed; a retryable error counts as a failed attempt and triggers backoff.
type Func func(ctx context.Context) (done bool, err error)

// Run calls fn on a fixed interval until it reports done, ctx ends or the
// attempts run out. A tick that fires while a call is still in flight is
// skipped. After a failed call the wait doubles, capped at MaxInterval, and
// returns to Interval after the next success.
func Run(ctx context.Context, opts Options, fn Func) error {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.MaxInterval < opts.Interval {
		opts.MaxInterval = opts.Interval * 8
	}

	type result struct {
		done bool
		err  error
	}

	results := make(chan result, 1)
	inFlight := false
	attempts := 0
	wait := opts.Interval
	var lastErr error

	start := func() {
		inFlight = true
		attempts++
		go func() {
			done, err := fn(ctx)
			results <- result{done, err}
		}()
	}

	start()
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case res := <-results:
			inFlight = false
			if res.done && res.err == nil {
				return nil
			}
			if res.err != nil {
				if opts.Retryable != nil && !opts.Retryable(res.err) {
					return res.err
				}
				lastErr = res.err
				wait *= 2
				if wait > opts.MaxInterval {
					wait = opts.MaxInterval
				}
			} else {
				wait = opts.Interval
			}
			if opts.MaxAttempts > 0 && attempts >= opts.MaxAttempts {
				if lastErr != nil {
					return errors.Join(ErrExhausted, lastErr)
				}
				return ErrExhausted
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(wait)

		case <-timer.C:
			if inFlight {
				timer.Reset(wait)
				continue
			}
			start()
			timer.Reset(wait)
		}
	}
}

// Retry calls fn up to attempts times with a fixed delay between calls,
// stopping early on success or when retryable reports false.
func Retry(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
