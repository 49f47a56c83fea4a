// Package openai provides an stt.Transcriber backed by the OpenAI audio
// transcription API.
//
// Chunks are encoded as in-memory WAV files and submitted as one-shot
// transcription requests. This trades per-chunk network latency for zero
// local model footprint, which suits hosts that cannot run whisper.cpp.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
	"github.com/b00ls0ck3t/Polyglot/pkg/wav"
)

// DefaultModel is the default OpenAI transcription model.
const DefaultModel = oai.AudioModelWhisper1

// Ensure Transcriber implements the stt.Transcriber interface.
var _ stt.Transcriber = (*Transcriber)(nil)

// Transcriber implements stt.Transcriber using the OpenAI API.
type Transcriber struct {
	client     oai.Client
	model      string
	language   string
	sampleRate int
}

// config holds optional configuration for the transcriber.
type config struct {
	baseURL    string
	timeout    time.Duration
	language   string
	sampleRate int
}

// Option is a functional option for Transcriber.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// OpenAI-compatible local servers.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithLanguage sets the ISO-639-1 language hint (e.g., "en", "cs").
// Defaults to auto-detection.
func WithLanguage(lang string) Option {
	return func(c *config) { c.language = lang }
}

// WithSampleRate sets the sample rate of chunks passed to Transcribe.
// Defaults to 16000.
func WithSampleRate(rate int) Option {
	return func(c *config) { c.sampleRate = rate }
}

// New constructs a new OpenAI Transcriber.
// If model is empty, DefaultModel (whisper-1) is used.
func New(apiKey string, model string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai stt: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{sampleRate: 16000}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Transcriber{
		client:     oai.NewClient(reqOpts...),
		model:      model,
		language:   cfg.language,
		sampleRate: cfg.sampleRate,
	}, nil
}

// Transcribe submits pcm as a WAV transcription request and returns the
// recognised text, trimmed. An empty transcription is not an error.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []int16) (string, error) {
	b, err := wav.Bytes(pcm, t.sampleRate)
	if err != nil {
		return "", err
	}

	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(b), "chunk.wav", "audio/wav"),
		Model: oai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = oai.String(t.language)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai stt: transcription request: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
