// Package native provides an stt.Transcriber backed by the whisper.cpp CGO
// bindings, eliminating subprocess and HTTP overhead entirely.
//
// The whisper.cpp static library (libwhisper.a) and headers (whisper.h) must
// be available at link time via LIBRARY_PATH and C_INCLUDE_PATH environment
// variables. The model is loaded once at startup and shared across calls.
package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
)

// Compile-time assertion that Transcriber satisfies stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber implements stt.Transcriber using in-process whisper.cpp
// inference. A whisper context is not thread-safe, so calls are serialised
// with a mutex; the pipeline only ever transcribes one chunk at a time, so
// this never contends in practice.
type Transcriber struct {
	mu       sync.Mutex
	model    whisperlib.Model
	language string
}

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithLanguage sets the language code for transcription (e.g., "en", "cs").
// Defaults to "auto".
func WithLanguage(lang string) Option {
	return func(t *Transcriber) { t.language = lang }
}

// New creates a Transcriber that loads the whisper.cpp model from the given
// file path. The caller must call Close when the transcriber is no longer
// needed.
func New(modelPath string, opts ...Option) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("native: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("native: load model %q: %w", modelPath, err)
	}

	t := &Transcriber{
		model:    model,
		language: "auto",
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Close releases the whisper model.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model != nil {
		err := t.model.Close()
		t.model = nil
		return err
	}
	return nil
}

// Transcribe runs whisper.cpp inference on pcm using a fresh context and
// returns the concatenated segment text.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []int16) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model == nil {
		return "", errors.New("native: transcriber is closed")
	}

	samples := make([]float32, len(pcm))
	for i, s := range pcm {
		samples[i] = float32(s) / 32768.0
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("native: create context: %w", err)
	}
	if err := wctx.SetLanguage(t.language); err != nil {
		slog.Warn("native: failed to set language, using default", "language", t.language, "error", err)
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("native: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("native: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
