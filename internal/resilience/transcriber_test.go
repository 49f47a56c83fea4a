package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	sttmock "github.com/b00ls0ck3t/Polyglot/pkg/provider/stt/mock"
)

func TestFallbackTranscriber_PrimaryHealthy(t *testing.T) {
	primary := &sttmock.Transcriber{Result: "from primary"}
	fallback := &sttmock.Transcriber{Result: "from fallback"}

	f := NewFallbackTranscriber(primary, "primary", BreakerConfig{})
	f.AddFallback("fallback", fallback)

	text, err := f.Transcribe(context.Background(), []int16{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from primary" {
		t.Errorf("text = %q, want primary's result", text)
	}
	if fallback.CallCount() != 0 {
		t.Errorf("fallback calls = %d, want 0", fallback.CallCount())
	}
}

func TestFallbackTranscriber_FailsOver(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errors.New("primary down")}
	fallback := &sttmock.Transcriber{Result: "from fallback"}

	f := NewFallbackTranscriber(primary, "primary", BreakerConfig{})
	f.AddFallback("fallback", fallback)

	text, err := f.Transcribe(context.Background(), []int16{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from fallback" {
		t.Errorf("text = %q, want fallback's result", text)
	}
}

func TestFallbackTranscriber_OpenPrimarySkippedWithoutCall(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errors.New("primary down")}
	fallback := &sttmock.Transcriber{Result: "ok"}

	f := NewFallbackTranscriber(primary, "primary", BreakerConfig{MaxFailures: 2})
	f.AddFallback("fallback", fallback)

	ctx := context.Background()
	f.Transcribe(ctx, []int16{1})
	f.Transcribe(ctx, []int16{1}) // opens the primary's breaker
	before := primary.CallCount()

	if _, err := f.Transcribe(ctx, []int16{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if primary.CallCount() != before {
		t.Errorf("open primary was called %d extra times", primary.CallCount()-before)
	}
}

func TestFallbackTranscriber_AllFail(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errors.New("down")}
	fallback := &sttmock.Transcriber{Err: errors.New("also down")}

	f := NewFallbackTranscriber(primary, "primary", BreakerConfig{})
	f.AddFallback("fallback", fallback)

	_, err := f.Transcribe(context.Background(), []int16{1})
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Errorf("err = %v, want ErrAllBackendsFailed", err)
	}
}

func TestFallbackTranscriber_StopsOnCancelledContext(t *testing.T) {
	slow := &sttmock.Transcriber{Err: errors.New("timeout")}
	fallback := &sttmock.Transcriber{Result: "never reached"}

	f := NewFallbackTranscriber(slow, "slow", BreakerConfig{})
	f.AddFallback("fallback", fallback)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := f.Transcribe(ctx, []int16{1})
	if !errors.Is(err, ErrAllBackendsFailed) {
		t.Fatalf("err = %v, want ErrAllBackendsFailed", err)
	}
	if fallback.CallCount() != 0 {
		t.Errorf("fallback was tried after the caller gave up")
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled transcription took too long")
	}
}
