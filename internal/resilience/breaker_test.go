package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend error")

func TestBreaker_Defaults(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test"})
	if b.maxFailures != 5 {
		t.Errorf("maxFailures = %d, want 5", b.maxFailures)
	}
	if b.resetTimeout != 30*time.Second {
		t.Errorf("resetTimeout = %v, want 30s", b.resetTimeout)
	}
	if b.probeBudget != 3 {
		t.Errorf("probeBudget = %d, want 3", b.probeBudget)
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 3})

	for i := 0; i < 3; i++ {
		if err := b.Do(func() error { return errBackend }); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: err = %v, want backend error", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn was called while the circuit was open")
	}
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 3})

	b.Do(func() error { return errBackend })
	b.Do(func() error { return errBackend })
	b.Do(func() error { return nil })
	b.Do(func() error { return errBackend })
	b.Do(func() error { return errBackend })

	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed (failures never consecutive enough)", b.State())
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerConfig{
		Name:         "test",
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
		ProbeBudget:  2,
	})

	b.Do(func() error { return errBackend })
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	time.Sleep(20 * time.Millisecond)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after reset timeout", b.State())
	}

	// Two successful probes close the breaker.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe 1: %v", err)
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe 2: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after successful probes", b.State())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{
		Name:         "test",
		MaxFailures:  1,
		ResetTimeout: 10 * time.Millisecond,
	})

	b.Do(func() error { return errBackend })
	time.Sleep(20 * time.Millisecond)

	b.Do(func() error { return errBackend })
	if b.State() != StateOpen {
		t.Errorf("state = %v, want open after failed probe", b.State())
	}
	// The open period restarts: calls are rejected again.
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
}

func TestBreaker_Reset(t *testing.T) {
	b := NewBreaker(BreakerConfig{Name: "test", MaxFailures: 1})
	b.Do(func() error { return errBackend })
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	b.Reset()
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed after reset", b.State())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
