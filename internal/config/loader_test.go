package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
	sttmock "github.com/b00ls0ck3t/Polyglot/pkg/provider/stt/mock"
)

func TestLoadFromReader_OverridesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`
audio:
  chunk_seconds: 6
buffer:
  max_chars: 800
transport:
  url: "ws://localhost:8765"
providers:
  stt:
    name: openai
    api_key: sk-test
    model: whisper-1
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Audio.ChunkSeconds != 6 {
		t.Errorf("chunk_seconds = %v, want 6", cfg.Audio.ChunkSeconds)
	}
	if cfg.Buffer.MaxChars != 800 {
		t.Errorf("max_chars = %d, want 800", cfg.Buffer.MaxChars)
	}
	if cfg.Providers.STT.Name != "openai" || cfg.Providers.STT.Model != "whisper-1" {
		t.Errorf("stt provider = %+v", cfg.Providers.STT)
	}
	// Untouched fields keep defaults.
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("sample_rate = %d, want default 16000", cfg.Audio.SampleRate)
	}
	if cfg.Clustering.HighConfidence != 0.7 {
		t.Errorf("high_confidence = %v, want default 0.7", cfg.Clustering.HighConfidence)
	}
}

func TestLoadFromReader_EmptyInputYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Buffer.MaxChars != Default().Buffer.MaxChars {
		t.Errorf("max_chars = %d, want default", cfg.Buffer.MaxChars)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader(`
audio:
  sample_rat: 8000
`))
	if err == nil {
		t.Fatal("expected error for misspelled field")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.LogLevel = "verbose"
	cfg.VAD.Threshold = 1.5
	cfg.Buffer.MaxChars = 0
	cfg.Providers.STT.Name = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"server.log_level", "vad.threshold", "buffer.max_chars", "providers.stt.name"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error is missing %q: %v", want, err)
		}
	}
}

func TestValidate_PendingAboveHighConfidence(t *testing.T) {
	cfg := Default()
	cfg.Clustering.Pending = 0.9
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error when pending exceeds high_confidence")
	}
}

func TestValidate_FallbackMustDiffer(t *testing.T) {
	cfg := Default()
	cfg.Providers.STTFallback = cfg.Providers.STT
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error when fallback duplicates the primary")
	}

	// Same provider with a different model is a valid fallback.
	cfg.Providers.STTFallback.Model = "medium"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if _, err := r.CreateSTT(ProviderEntry{Name: "nope"}); !errors.Is(err, ErrProviderNotRegistered) {
		t.Fatalf("error = %v, want ErrProviderNotRegistered", err)
	}

	r.RegisterSTT("stub", func(ProviderEntry) (stt.Transcriber, error) {
		return &sttmock.Transcriber{}, nil
	})
	if _, err := r.CreateSTT(ProviderEntry{Name: "stub"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
