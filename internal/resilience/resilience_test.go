package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPolicyDelay(t *testing.T) {
	t.Parallel()
	p := Policy{MaxAttempts: 4, BaseDelay: time.Second, Multiplier: 2}

	if got := p.Delay(1); got != time.Second {
		t.Errorf("Delay(1) = %v, want 1s", got)
	}
	if got := p.Delay(2); got != 2*time.Second {
		t.Errorf("Delay(2) = %v, want 2s", got)
	}
	if got := p.Delay(3); got != 4*time.Second {
		t.Errorf("Delay(3) = %v, want 4s", got)
	}
}

func TestPolicyDelayCapAndJitter(t *testing.T) {
	t.Parallel()
	capped := Policy{BaseDelay: time.Second, Multiplier: 10, MaxDelay: 3 * time.Second}
	if got := capped.Delay(5); got != 3*time.Second {
		t.Errorf("capped Delay = %v, want 3s", got)
	}

	jittered := Policy{BaseDelay: time.Second, Multiplier: 1, Jitter: true}
	for range 20 {
		d := jittered.Delay(1)
		if d < 500*time.Millisecond || d > time.Second {
			t.Fatalf("jittered delay %v outside [d/2, d]", d)
		}
	}
}

func TestPolicySleepCancellation(t *testing.T) {
	t.Parallel()
	p := Policy{BaseDelay: time.Hour, Multiplier: 1}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- p.Sleep(ctx, 1) }()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Sleep returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sleep ignored cancellation")
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "test",
		MaxFailures:  2,
		ResetTimeout: 20 * time.Millisecond,
		HalfOpenMax:  1,
	})
	boom := errors.New("boom")

	for range 2 {
		if err := cb.Execute(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("failure not propagated: %v", err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open after consecutive failures", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker ran the call: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %s, want closed after a successful probe", cb.State())
	}
}

func TestCircuitBreakerReopensOnProbeFailure(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
	})
	boom := errors.New("boom")

	_ = cb.Execute(func() error { return boom })
	time.Sleep(15 * time.Millisecond)
	_ = cb.Execute(func() error { return boom })

	if cb.State() != StateOpen {
		t.Errorf("state = %s, want re-opened after a failed probe", cb.State())
	}
}
