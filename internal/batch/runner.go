// Package batch implements the bounded concurrent runner behind every
// multi-target probe: DNS resolver sweeps, NTP sweeps, endpoint sweeps, IXP
// checks, port scans and ping sweeps.
//
// The runner applies a per-target probe function to a list of targets with at
// most W probes in flight, each bounded by its own timeout. Failures whose
// classification matches the retry predicate are re-attempted with
// exponential backoff up to the policy's attempt bound. Probe errors never
// escape as Go errors — every target ends up in either the success or the
// failure list — and no worker outlives [Runner.Run].
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/observe"
	"github.com/MrWong99/netscout/internal/resilience"
)

// Outcome is the per-target result a probe function reports.
type Outcome struct {
	// Target identifies the probed target.
	Target string

	// Data is the per-target structured record (response time, offset, …)
	// included in the success list.
	Data map[string]any

	// ErrCode and ErrMessage classify a failure. ErrCode empty means the
	// target succeeded.
	ErrCode    envelope.ErrorCode
	ErrMessage string
}

// Failed reports whether the outcome is a failure record.
func (o Outcome) Failed() bool {
	return o.ErrCode != ""
}

// ProbeFunc probes a single target. The context carries the per-target
// deadline; implementations must return promptly when it fires. A panic in a
// probe is converted to a failure record by the runner.
type ProbeFunc func(ctx context.Context, target string) Outcome

// Config tunes a [Runner].
type Config struct {
	// Parallelism is the maximum number of in-flight probes (W). Values
	// below 1 behave as 1.
	Parallelism int

	// PerTargetTimeout bounds each individual probe attempt.
	PerTargetTimeout time.Duration

	// Retry is the backoff schedule for retryable failures. A zero policy
	// means a single attempt per target.
	Retry resilience.Policy

	// RetryCodes lists the error codes eligible for retry. Nil defaults to
	// {timeout, connection_failed}.
	RetryCodes []envelope.ErrorCode
}

// Runner executes probes over target lists. The zero value is not usable;
// create instances with [New].
type Runner struct {
	parallelism int
	timeout     time.Duration
	retry       resilience.Policy
	retryable   map[envelope.ErrorCode]bool
}

// New creates a Runner from cfg, substituting defaults for zero fields.
func New(cfg Config) *Runner {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.PerTargetTimeout <= 0 {
		cfg.PerTargetTimeout = envelope.Timeout("web_request")
	}
	codes := cfg.RetryCodes
	if codes == nil {
		codes = []envelope.ErrorCode{envelope.CodeTimeout, envelope.CodeConnectionFailed}
	}
	retryable := make(map[envelope.ErrorCode]bool, len(codes))
	for _, c := range codes {
		retryable[c] = true
	}
	return &Runner{
		parallelism: cfg.Parallelism,
		timeout:     cfg.PerTargetTimeout,
		retry:       cfg.Retry,
		retryable:   retryable,
	}
}

// Run probes every target and returns the success list, the failure list and
// the aggregate summary. Ordering within the returned lists is unspecified;
// counts are exact. Cancelling ctx cancels in-flight probes and suppresses
// pending retries; targets not yet started or cut off mid-probe are reported
// as timeouts, while a target cancelled during retry backoff keeps its last
// failure record.
func (r *Runner) Run(ctx context.Context, kind string, targets []string, probe ProbeFunc) (successes, failures []Outcome, summary envelope.Summary) {
	if len(targets) == 0 {
		return nil, nil, envelope.Summarize(kind, 0, 0)
	}

	sem := semaphore.NewWeighted(int64(r.parallelism))
	results := make([]Outcome, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = Outcome{
					Target:     target,
					ErrCode:    envelope.CodeTimeout,
					ErrMessage: "batch cancelled before probe started",
				}
				return
			}
			defer sem.Release(1)
			results[i] = r.probeWithRetry(ctx, target, probe)
		}()
	}
	wg.Wait()

	for _, out := range results {
		if out.Failed() {
			failures = append(failures, out)
		} else {
			successes = append(successes, out)
		}
	}
	observe.Default().RecordBatchOutcomes(ctx, kind, len(successes), len(failures))
	return successes, failures, envelope.Summarize(kind, len(targets), len(successes))
}

// probeWithRetry runs one target through the attempt loop.
func (r *Runner) probeWithRetry(ctx context.Context, target string, probe ProbeFunc) Outcome {
	attempts := r.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last Outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		last = r.probeOnce(ctx, target, probe)
		if !last.Failed() || !r.retryable[last.ErrCode] {
			return last
		}
		if attempt == attempts {
			break
		}
		if err := r.retry.Sleep(ctx, attempt); err != nil {
			// Batch cancelled mid-backoff; report the last real failure.
			return last
		}
	}
	return last
}

// probeOnce runs a single bounded attempt, converting panics and deadline
// overruns into failure records.
func (r *Runner) probeOnce(ctx context.Context, target string, probe ProbeFunc) (out Outcome) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			out = Outcome{
				Target:     target,
				ErrCode:    envelope.CodeUnexpectedError,
				ErrMessage: fmt.Sprintf("probe panicked: %v", rec),
			}
		}
	}()

	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- Outcome{
					Target:     target,
					ErrCode:    envelope.CodeUnexpectedError,
					ErrMessage: fmt.Sprintf("probe panicked: %v", rec),
				}
			}
		}()
		done <- probe(attemptCtx, target)
	}()

	select {
	case out = <-done:
		if out.Target == "" {
			out.Target = target
		}
		return out
	case <-attemptCtx.Done():
		// The probe goroutine still owns its buffered channel slot, so it
		// can finish and exit even though nobody reads the result.
		return Outcome{
			Target:     target,
			ErrCode:    envelope.CodeTimeout,
			ErrMessage: fmt.Sprintf("probe timed out after %s", r.timeout),
		}
	}
}

// OutcomeMaps renders outcomes as parsed_data-ready maps. Success records
// carry the target plus the probe's data; failure records carry target,
// error_type and error_message.
func OutcomeMaps(outcomes []Outcome) []map[string]any {
	out := make([]map[string]any, len(outcomes))
	for i, o := range outcomes {
		m := map[string]any{"target": o.Target}
		if o.Failed() {
			m["error_type"] = string(o.ErrCode)
			m["error_message"] = o.ErrMessage
		}
		for k, v := range o.Data {
			m[k] = v
		}
		out[i] = m
	}
	return out
}
