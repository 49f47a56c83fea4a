package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
)

// ErrAllBackendsFailed is returned by [FallbackTranscriber.Transcribe] when
// every backend fails or has an open breaker.
var ErrAllBackendsFailed = errors.New("resilience: all transcription backends failed")

// Compile-time interface assertion.
var _ stt.Transcriber = (*FallbackTranscriber)(nil)

// backend pairs a named transcriber with its dedicated breaker.
type backend struct {
	name        string
	transcriber stt.Transcriber
	breaker     *Breaker
}

// FallbackTranscriber implements [stt.Transcriber] with automatic failover
// across multiple backends, each guarded by its own [Breaker]. Backends are
// tried in registration order, primary first.
//
// Safe for concurrent use once construction is finished; AddFallback must
// not race with Transcribe.
type FallbackTranscriber struct {
	backends []backend
	cfg      BreakerConfig
}

// NewFallbackTranscriber wraps primary as the preferred backend. cfg's Name
// field is overridden per backend.
func NewFallbackTranscriber(primary stt.Transcriber, primaryName string, cfg BreakerConfig) *FallbackTranscriber {
	f := &FallbackTranscriber{cfg: cfg}
	f.add(primaryName, primary)
	return f
}

// AddFallback registers an additional backend, tried after the primary and
// any previously added fallbacks.
func (f *FallbackTranscriber) AddFallback(name string, t stt.Transcriber) {
	f.add(name, t)
}

func (f *FallbackTranscriber) add(name string, t stt.Transcriber) {
	cfg := f.cfg
	cfg.Name = name
	f.backends = append(f.backends, backend{
		name:        name,
		transcriber: t,
		breaker:     NewBreaker(cfg),
	})
}

// Transcribe forwards the chunk to the first healthy backend. A backend
// with an open breaker is skipped without being called. When every backend
// fails, the last error is wrapped in [ErrAllBackendsFailed].
func (f *FallbackTranscriber) Transcribe(ctx context.Context, pcm []int16) (string, error) {
	var lastErr error
	for i := range f.backends {
		be := &f.backends[i]
		var text string
		err := be.breaker.Do(func() error {
			var innerErr error
			text, innerErr = be.transcriber.Transcribe(ctx, pcm)
			return innerErr
		})
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, ErrOpen) {
			slog.Debug("skipping transcription backend, circuit open", "backend", be.name)
		} else {
			slog.Warn("transcription backend failed, trying next", "backend", be.name, "error", err)
		}
		// The caller gave up; stop burning the remaining backends.
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrAllBackendsFailed, lastErr)
}
