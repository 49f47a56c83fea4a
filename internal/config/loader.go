package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":       {"whispercli", "openai", "native"},
	"vad":       {"energy"},
	"embedding": {"ecapa"},
}

// Load reads the YAML configuration file at path, decoded on top of
// [Default], and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over [Default] and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", cfg.Audio.SampleRate))
	}
	if cfg.Audio.ChunkSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio.chunk_seconds %.2f must be positive", cfg.Audio.ChunkSeconds))
	}

	if cfg.VAD.Threshold <= 0 || cfg.VAD.Threshold >= 1 {
		errs = append(errs, fmt.Errorf("vad.threshold %.2f is out of range (0, 1)", cfg.VAD.Threshold))
	}

	if cfg.Buffer.MaxAgeSeconds <= 0 {
		errs = append(errs, fmt.Errorf("buffer.max_age_seconds %.2f must be positive", cfg.Buffer.MaxAgeSeconds))
	}
	if cfg.Buffer.MaxChars <= 0 {
		errs = append(errs, fmt.Errorf("buffer.max_chars %d must be positive", cfg.Buffer.MaxChars))
	}
	if cfg.Buffer.MaxIdleSeconds <= 0 {
		errs = append(errs, fmt.Errorf("buffer.max_idle_seconds %.2f must be positive", cfg.Buffer.MaxIdleSeconds))
	}

	if cfg.Diarization.Method != "" && !cfg.Diarization.Method.IsValid() {
		errs = append(errs, fmt.Errorf("diarization.method %q is invalid; valid values: none, pretrained, clustering", cfg.Diarization.Method))
	}

	if cfg.Clustering.HighConfidence <= 0 || cfg.Clustering.HighConfidence > 1 {
		errs = append(errs, fmt.Errorf("clustering.high_confidence %.2f is out of range (0, 1]", cfg.Clustering.HighConfidence))
	}
	if cfg.Clustering.Pending <= 0 || cfg.Clustering.Pending > 1 {
		errs = append(errs, fmt.Errorf("clustering.pending %.2f is out of range (0, 1]", cfg.Clustering.Pending))
	}
	if cfg.Clustering.Pending > cfg.Clustering.HighConfidence {
		errs = append(errs, fmt.Errorf("clustering.pending %.2f must not exceed clustering.high_confidence %.2f", cfg.Clustering.Pending, cfg.Clustering.HighConfidence))
	}
	if cfg.Clustering.MinPendingSamples < 2 {
		errs = append(errs, fmt.Errorf("clustering.min_pending_samples %d must be at least 2", cfg.Clustering.MinPendingSamples))
	}
	if cfg.Clustering.DistanceThreshold <= 0 || cfg.Clustering.DistanceThreshold >= 2 {
		errs = append(errs, fmt.Errorf("clustering.distance_threshold %.2f is out of range (0, 2)", cfg.Clustering.DistanceThreshold))
	}
	if cfg.Clustering.ProfileCap <= 0 {
		errs = append(errs, fmt.Errorf("clustering.profile_cap %d must be positive", cfg.Clustering.ProfileCap))
	}

	if cfg.Transport.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("transport.max_retries %d must not be negative", cfg.Transport.MaxRetries))
	}
	if cfg.Transport.RetryDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("transport.retry_delay_seconds %.2f must not be negative", cfg.Transport.RetryDelaySeconds))
	}

	// A transcriber is the one provider the pipeline cannot run without.
	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required"))
	}

	if cfg.Providers.STTFallback.Name != "" && cfg.Providers.STTFallback.Name == cfg.Providers.STT.Name && cfg.Providers.STTFallback.Model == cfg.Providers.STT.Model {
		errs = append(errs, errors.New("providers.stt_fallback duplicates providers.stt; a fallback must differ in provider or model"))
	}

	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("stt", cfg.Providers.STTFallback.Name)
	validateProviderName("vad", cfg.Providers.VAD.Name)
	validateProviderName("embedding", cfg.Providers.Embedding.Name)

	if cfg.Diarization.Method == DiarizationClustering && cfg.Providers.Embedding.Name == "" {
		slog.Warn("diarization.method is clustering but providers.embedding is not configured; chunks will stay unattributed")
	}
	if cfg.Providers.VAD.Name == "" {
		slog.Warn("providers.vad is not configured; every chunk will be treated as speech")
	}
	if cfg.Transport.URL == "" {
		slog.Warn("transport.url is empty; downstream events will be dropped")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
