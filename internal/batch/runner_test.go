package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrWong99/netscout/internal/envelope"
	"github.com/MrWong99/netscout/internal/resilience"
)

// TestRunAllSucceed verifies counts and summary for an all-success batch.
func TestRunAllSucceed(t *testing.T) {
	t.Parallel()
	r := New(Config{Parallelism: 4, PerTargetTimeout: time.Second})

	ok, failed, summary := r.Run(context.Background(), "test", []string{"a", "b", "c"},
		func(_ context.Context, target string) Outcome {
			return Outcome{Target: target, Data: map[string]any{"ms": 1}}
		})

	if len(ok) != 3 || len(failed) != 0 {
		t.Fatalf("ok=%d failed=%d, want 3/0", len(ok), len(failed))
	}
	if summary.Status != envelope.StatusSuccess || summary.SuccessRate != 1.0 {
		t.Errorf("summary = %+v", summary)
	}
}

// TestRunMixed verifies that failures land in the failure list with their
// classification and the summary reflects the split.
func TestRunMixed(t *testing.T) {
	t.Parallel()
	r := New(Config{Parallelism: 2, PerTargetTimeout: time.Second})

	ok, failed, summary := r.Run(context.Background(), "ntp", []string{"good1", "bad", "good2", "good3"},
		func(_ context.Context, target string) Outcome {
			if target == "bad" {
				return Outcome{Target: target, ErrCode: envelope.CodeUnreachable, ErrMessage: "nope"}
			}
			return Outcome{Target: target}
		})

	if len(ok) != 3 || len(failed) != 1 {
		t.Fatalf("ok=%d failed=%d, want 3/1", len(ok), len(failed))
	}
	if failed[0].ErrCode != envelope.CodeUnreachable {
		t.Errorf("failure code = %s", failed[0].ErrCode)
	}
	if summary.SuccessRate != 0.75 || summary.Status != envelope.StatusPartial {
		t.Errorf("summary = %+v, want 0.75/partial", summary)
	}
}

// TestParallelismBound verifies at most W probes run concurrently.
func TestParallelismBound(t *testing.T) {
	t.Parallel()
	const w = 3
	r := New(Config{Parallelism: w, PerTargetTimeout: time.Second})

	var inFlight, peak atomic.Int32
	targets := make([]string, 20)
	for i := range targets {
		targets[i] = "t"
	}

	r.Run(context.Background(), "test", targets, func(_ context.Context, target string) Outcome {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return Outcome{Target: target}
	})

	if got := peak.Load(); got > w {
		t.Errorf("peak concurrency = %d, want ≤ %d", got, w)
	}
}

// TestPerTargetTimeout verifies that a hung probe is reported as a timeout
// failure instead of blocking the batch.
func TestPerTargetTimeout(t *testing.T) {
	t.Parallel()
	r := New(Config{Parallelism: 2, PerTargetTimeout: 30 * time.Millisecond})

	start := time.Now()
	_, failed, _ := r.Run(context.Background(), "test", []string{"hang"},
		func(ctx context.Context, target string) Outcome {
			<-ctx.Done()
			time.Sleep(5 * time.Millisecond)
			return Outcome{Target: target}
		})

	if len(failed) != 1 || failed[0].ErrCode != envelope.CodeTimeout {
		t.Fatalf("failed = %+v, want one timeout", failed)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("batch took %v, timeout not enforced", elapsed)
	}
}

// TestRetryOnlyRetryableCodes verifies that timeouts are retried but
// non-retryable classifications are not.
func TestRetryOnlyRetryableCodes(t *testing.T) {
	t.Parallel()
	r := New(Config{
		Parallelism:      1,
		PerTargetTimeout: time.Second,
		Retry:            resilience.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 1},
	})

	var mu sync.Mutex
	calls := map[string]int{}

	_, failed, _ := r.Run(context.Background(), "test", []string{"flaky", "broken"},
		func(_ context.Context, target string) Outcome {
			mu.Lock()
			calls[target]++
			n := calls[target]
			mu.Unlock()

			switch target {
			case "flaky":
				if n < 3 {
					return Outcome{Target: target, ErrCode: envelope.CodeConnectionFailed, ErrMessage: "refused"}
				}
				return Outcome{Target: target}
			default:
				return Outcome{Target: target, ErrCode: envelope.CodeInvalidTarget, ErrMessage: "bad"}
			}
		})

	mu.Lock()
	defer mu.Unlock()
	if calls["flaky"] != 3 {
		t.Errorf("flaky target attempts = %d, want 3", calls["flaky"])
	}
	if calls["broken"] != 1 {
		t.Errorf("non-retryable target attempts = %d, want 1", calls["broken"])
	}
	if len(failed) != 1 || failed[0].Target != "broken" {
		t.Errorf("failed = %+v", failed)
	}
}

// TestProbePanicBecomesFailure verifies the no-exception-escape property.
func TestProbePanicBecomesFailure(t *testing.T) {
	t.Parallel()
	r := New(Config{Parallelism: 1, PerTargetTimeout: time.Second})

	_, failed, _ := r.Run(context.Background(), "test", []string{"boom"},
		func(_ context.Context, _ string) Outcome {
			panic("kaboom")
		})

	if len(failed) != 1 || failed[0].ErrCode != envelope.CodeUnexpectedError {
		t.Fatalf("failed = %+v, want one unexpected_error", failed)
	}
}

// TestCancelStopsRetries verifies that batch cancellation suppresses
// scheduled retries.
func TestCancelStopsRetries(t *testing.T) {
	t.Parallel()
	r := New(Config{
		Parallelism:      1,
		PerTargetTimeout: time.Second,
		Retry:            resilience.Policy{MaxAttempts: 5, BaseDelay: time.Hour, Multiplier: 1},
	})

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx, "test", []string{"t"}, func(_ context.Context, target string) Outcome {
			calls.Add(1)
			return Outcome{Target: target, ErrCode: envelope.CodeTimeout, ErrMessage: "slow"}
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not return after cancellation")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("attempts after cancel = %d, want 1", got)
	}
}
