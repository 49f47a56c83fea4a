// Package resilience protects the pipeline from a persistently failing
// transcription backend.
//
// A remote speech-to-text service that stops responding costs the pipeline
// a full timeout on every chunk. [Breaker] is a three-state circuit breaker
// (closed, open, half-open) that converts that steady bleed into fast
// rejections, and [FallbackTranscriber] composes several transcription
// backends with one breaker each so a failing primary is bypassed in
// favour of healthy fallbacks.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] when the breaker is open and the
// reset timeout has not yet elapsed.
var ErrOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects every call with [ErrOpen] until the reset
	// timeout elapses.
	StateOpen

	// StateHalfOpen lets a bounded number of probe calls through; their
	// outcome decides between closing and re-opening.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds tuning knobs for a [Breaker]. Zero-value fields are
// replaced with the defaults documented per field.
type BreakerConfig struct {
	// Name labels the breaker in log messages.
	Name string

	// MaxFailures is the run of consecutive failures that opens the
	// breaker. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before probing
	// again. Default: 30s.
	ResetTimeout time.Duration

	// ProbeBudget is the number of half-open probe calls that must
	// succeed to close the breaker. Default: 3.
	ProbeBudget int
}

// Breaker is a three-state circuit breaker.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	probeBudget  int

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
	probeErr bool
}

// NewBreaker creates a closed [Breaker] from cfg.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.ProbeBudget <= 0 {
		cfg.ProbeBudget = 3
	}
	return &Breaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		probeBudget:  cfg.ProbeBudget,
	}
}

// Do runs fn unless the breaker rejects the call. Open breakers return
// [ErrOpen] without invoking fn; half-open breakers forward a bounded
// number of probes. fn's error is returned unchanged.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case StateOpen:
		if time.Since(b.openedAt) < b.resetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.probes = 0
		b.probeErr = false
		slog.Info("circuit half-open, probing backend", "name", b.name)

	case StateHalfOpen:
		if b.probes >= b.probeBudget {
			b.mu.Unlock()
			return ErrOpen
		}
	}
	probing := b.state == StateHalfOpen
	if probing {
		b.probes++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure(probing)
	} else {
		b.onSuccess(probing)
	}
	return err
}

// onFailure updates state after a failed call. Caller holds b.mu.
func (b *Breaker) onFailure(probing bool) {
	if probing {
		// One failed probe re-opens immediately.
		b.state = StateOpen
		b.openedAt = time.Now()
		b.probeErr = true
		slog.Warn("circuit re-opened, probe failed", "name", b.name)
		return
	}
	b.failures++
	if b.failures >= b.maxFailures {
		b.state = StateOpen
		b.openedAt = time.Now()
		slog.Warn("circuit opened", "name", b.name, "consecutive_failures", b.failures)
	}
}

// onSuccess updates state after a successful call. Caller holds b.mu.
func (b *Breaker) onSuccess(probing bool) {
	if probing {
		if !b.probeErr && b.probes >= b.probeBudget {
			b.state = StateClosed
			b.failures = 0
			slog.Info("circuit closed, backend recovered", "name", b.name)
		}
		return
	}
	b.failures = 0
}

// State returns the breaker's current state. An open breaker whose reset
// timeout has elapsed reports half-open; the transition itself happens on
// the next [Breaker.Do].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.openedAt) >= b.resetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.probes = 0
	b.probeErr = false
}
