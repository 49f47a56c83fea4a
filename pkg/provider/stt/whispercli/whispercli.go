// Package whispercli provides an stt.Transcriber backed by the whisper.cpp
// command-line binary.
//
// Each Transcribe call writes the chunk to a temporary WAV file, spawns
// whisper-cli against it with timestamps and progress output disabled, and
// collects the transcription from the process output. The binary and model
// file are resolved once at construction from a list of conventional install
// locations, so a misconfigured host fails at startup rather than on the
// first chunk.
package whispercli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
	"github.com/b00ls0ck3t/Polyglot/pkg/wav"
)

// DefaultTimeout bounds a single whisper-cli invocation.
const DefaultTimeout = 30 * time.Second

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber runs whisper.cpp as a subprocess per chunk.
type Transcriber struct {
	binaryPath string
	modelPath  string
	language   string
	sampleRate int
	timeout    time.Duration
}

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithBinaryPath sets an explicit whisper-cli binary path, skipping the
// conventional-location search.
func WithBinaryPath(path string) Option {
	return func(t *Transcriber) { t.binaryPath = path }
}

// WithModelPath sets an explicit ggml model file path, skipping the
// conventional-location search.
func WithModelPath(path string) Option {
	return func(t *Transcriber) { t.modelPath = path }
}

// WithLanguage sets the language code passed to whisper-cli (e.g., "en",
// "cs"). Defaults to "auto".
func WithLanguage(lang string) Option {
	return func(t *Transcriber) { t.language = lang }
}

// WithSampleRate sets the sample rate of chunks passed to Transcribe.
// Defaults to 16000.
func WithSampleRate(rate int) Option {
	return func(t *Transcriber) { t.sampleRate = rate }
}

// WithTimeout bounds each whisper-cli invocation. Defaults to
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Transcriber) { t.timeout = d }
}

// New creates a Transcriber for the named whisper model (e.g., "medium",
// "large-v2"). It resolves the whisper-cli binary and the model file,
// returning an error if either cannot be found; the pipeline must not
// start without a working transcriber.
func New(model string, opts ...Option) (*Transcriber, error) {
	t := &Transcriber{
		language:   "auto",
		sampleRate: 16000,
		timeout:    DefaultTimeout,
	}
	for _, o := range opts {
		o(t)
	}

	if t.binaryPath == "" {
		path, err := findBinary()
		if err != nil {
			return nil, err
		}
		t.binaryPath = path
	}
	if t.modelPath == "" {
		path, err := findModel(model)
		if err != nil {
			return nil, err
		}
		t.modelPath = path
	}
	return t, nil
}

// findBinary searches conventional install locations for whisper-cli.
func findBinary() (string, error) {
	home, _ := os.UserHomeDir()
	candidates := []string{
		filepath.Join(home, "whisper.cpp", "build", "bin", "whisper-cli"),
		"/usr/local/bin/whisper-cli",
		filepath.Join(home, "whisper.cpp", "build", "bin", "main"),
		"/usr/local/bin/whisper-cpp",
		filepath.Join(home, "whisper.cpp", "main"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	if path, err := exec.LookPath("whisper-cli"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("whispercli: whisper-cli binary not found in conventional locations or PATH")
}

// findModel searches conventional locations for the named ggml model file.
func findModel(model string) (string, error) {
	home, _ := os.UserHomeDir()
	name := fmt.Sprintf("ggml-%s.bin", model)
	candidates := []string{
		filepath.Join("/usr/local/share/whisper", name),
		filepath.Join(home, "whisper.cpp", "models", name),
		filepath.Join("models", name),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("whispercli: model %q not found (looked for %s)", model, name)
}

// Transcribe writes pcm to a temp WAV, runs whisper-cli on it, and returns
// the recognised text. A timed-out or failed invocation returns an error;
// callers treat that as empty text.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []int16) (string, error) {
	f, err := os.CreateTemp("", "polyglot-chunk-*.wav")
	if err != nil {
		return "", fmt.Errorf("whispercli: create temp wav: %w", err)
	}
	tmpPath := f.Name()
	defer os.Remove(tmpPath)

	if err := wav.Encode(f, pcm, t.sampleRate); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("whispercli: close temp wav: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.binaryPath,
		"-m", t.modelPath,
		"-f", tmpPath,
		"-l", t.language,
		"-nt", // no timestamps
		"-np", // no progress
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("whispercli: transcription timed out after %s", t.timeout)
		}
		return "", fmt.Errorf("whispercli: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return ParseOutput(string(out)), nil
}

// ParseOutput extracts transcription text from whisper-cli output, skipping
// blank lines and bracketed status/timestamp lines.
func ParseOutput(out string) string {
	var parts []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}
