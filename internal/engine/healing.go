// Package engine implements self-healing execution: bounded retries with a
// pluggable delay strategy, model fallback chains, and a top-level core
// whose Invoke contract never raises to its caller.
package engine

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// DefaultMaxRetries is the number of attempts given to the primary function
// before the fallback runs.
const DefaultMaxRetries = 2

// Strategy produces the delay sequence between retry attempts. Each healing
// run gets a fresh sequence.
type Strategy interface {
	Backoff() backoff.BackOff
}

// Immediate retries with no delay and no jitter. This is the default
// strategy; Exponential can be substituted per call site.
type Immediate struct{}

func (Immediate) Backoff() backoff.BackOff { return &backoff.ZeroBackOff{} }

// Exponential delays retries with exponential backoff and jitter.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

func (e Exponential) Backoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if e.Initial > 0 {
		b.InitialInterval = e.Initial
	}
	if e.Max > 0 {
		b.MaxInterval = e.Max
	}
	b.MaxElapsedTime = 0 // attempts are bounded by count, not wall clock
	return b
}

// healingOptions configures one ExecuteWithHealing run.
type healingOptions[T any] struct {
	maxRetries int
	strategy   Strategy
	fallback   func(context.Context) (T, error)
}

// HealingOption configures ExecuteWithHealing.
type HealingOption[T any] func(*healingOptions[T])

// WithMaxRetries bounds the number of primary attempts.
func WithMaxRetries[T any](n int) HealingOption[T] {
	return func(o *healingOptions[T]) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithStrategy sets the retry delay strategy.
func WithStrategy[T any](s Strategy) HealingOption[T] {
	return func(o *healingOptions[T]) { o.strategy = s }
}

// WithFallback supplies a function invoked exactly once after all primary
// attempts fail.
func WithFallback[T any](fn func(context.Context) (T, error)) HealingOption[T] {
	return func(o *healingOptions[T]) { o.fallback = fn }
}

// ExecuteWithHealing runs fn up to maxRetries times sequentially. Each
// failed attempt is logged with its attempt number. After exhaustion, the
// fallback (when supplied) runs exactly once; if it also fails, its error is
// returned, not the original. Without a fallback, the last retry error is
// returned.
func ExecuteWithHealing[T any](ctx context.Context, op string, fn func(context.Context) (T, error), opts ...HealingOption[T]) (T, error) {
	o := healingOptions[T]{
		maxRetries: DefaultMaxRetries,
		strategy:   Immediate{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	delays := o.strategy.Backoff()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		log.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Int("max_retries", o.maxRetries).
			Err(err).
			Msg("Attempt failed")

		if attempt < o.maxRetries {
			if d := delays.NextBackOff(); d > 0 {
				select {
				case <-time.After(d):
				case <-ctx.Done():
					return zero, ctx.Err()
				}
			}
		}
	}

	if o.fallback != nil {
		result, err := o.fallback(ctx)
		if err == nil {
			return result, nil
		}
		log.Warn().Str("op", op).Err(err).Msg("Fallback failed")
		// The fallback's error wins over the original.
		return zero, err
	}

	return zero, lastErr
}
