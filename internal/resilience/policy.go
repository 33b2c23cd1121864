// Package resilience provides the retry and circuit-breaker primitives used
// by the batch runner, the sweep probes and the LLM orchestrator.
//
// A [Policy] describes exponential backoff with optional jitter; [Sleep]
// waits out one backoff step under a context; [CircuitBreaker] protects the
// LLM provider from hammering a failing backend. All types are safe for
// concurrent use.
package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy describes an exponential backoff schedule.
type Policy struct {
	// MaxAttempts is the total number of tries including the first.
	// Values below 1 behave as 1.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Default: 1s.
	BaseDelay time.Duration

	// Multiplier scales the delay after every retry. Default: 2.
	Multiplier float64

	// Jitter, when true, randomizes each delay uniformly in
	// [delay/2, delay].
	Jitter bool

	// MaxDelay caps a single backoff step. Zero means uncapped.
	MaxDelay time.Duration
}

// DefaultPolicy returns the schedule used by sweep probes: three attempts,
// one-second base, doubling.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// Delay returns the backoff before retry number attempt (1-indexed: attempt 1
// is the delay before the second try).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}

	d := time.Duration(float64(base) * pow(mult, attempt-1))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter {
		half := d / 2
		d = half + time.Duration(rand.Int64N(int64(half)+1))
	}
	return d
}

// Sleep waits out the backoff before retry number attempt, returning early
// with the context error on cancellation.
func (p Policy) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pow is an integer-exponent power without pulling in math.Pow's edge cases.
func pow(base float64, exp int) float64 {
	out := 1.0
	for range exp {
		out *= base
	}
	return out
}
