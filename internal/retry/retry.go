// Package retry waits for dependencies to come up using jittered backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Readiness delays between connection attempts.
// Attempt 1: 500ms, Attempt 2: 1s, Attempt 3: 2s, Attempt 4: 4s, then 8s.
var defaultDelays = []time.Duration{
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
}

// JitterFactor is the ±percentage of jitter applied to delays.
const JitterFactor = 0.2 // ±20%

// ErrExhausted is returned when every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy controls how many times and how long Do waits.
type Policy struct {
	Attempts int
	Delays   []time.Duration
	Jitter   float64

	// OnRetry is called before sleeping after a failed attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns the readiness policy with the given attempt count.
func DefaultPolicy(attempts int) Policy {
	return Policy{
		Attempts: attempts,
		Delays:   append([]time.Duration{}, defaultDelays...),
		Jitter:   JitterFactor,
	}
}

// NextDelay returns the delay after the given failed attempt (0-indexed),
// clamped to the last configured delay, with jitter applied.
func (p Policy) NextDelay(attempt int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(p.Delays) {
		attempt = len(p.Delays) - 1
	}

	base := p.Delays[attempt]
	if p.Jitter <= 0 {
		return base
	}

	jitterRange := float64(base) * p.Jitter
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}

// MaxWait returns the longest total time Do can spend sleeping between
// attempts, with jitter at its upper bound.
func (p Policy) MaxWait() time.Duration {
	var total time.Duration
	for attempt := 0; attempt < p.Attempts-1; attempt++ {
		base := Policy{Delays: p.Delays}.NextDelay(attempt)
		total += time.Duration(float64(base) * (1 + max(p.Jitter, 0)))
	}
	return total
}

// Do calls fn until it succeeds, the attempts run out, or ctx is done.
// The last error from fn is wrapped together with ErrExhausted.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.NextDelay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ctx.Err(), lastErr)
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}
