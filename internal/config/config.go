// Package config provides the configuration schema, loader, and provider
// registry for the Polyglot translation pipeline.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Profile is a named preset trading latency against quality.
type Profile string

const (
	// ProfileSpeed favours low latency: a smaller model, short chunks,
	// and no diarization.
	ProfileSpeed Profile = "speed"

	// ProfileAccuracy favours quality: a large model, long chunks, and
	// clustering-based diarization.
	ProfileAccuracy Profile = "accuracy"
)

// IsValid reports whether p is a recognised profile.
func (p Profile) IsValid() bool {
	return p == ProfileSpeed || p == ProfileAccuracy
}

// DiarizationMethod selects how chunks are attributed to speakers.
type DiarizationMethod string

const (
	// DiarizationNone disables speaker attribution entirely.
	DiarizationNone DiarizationMethod = "none"

	// DiarizationPretrained delegates segmentation to an external
	// pretrained diarization backend.
	DiarizationPretrained DiarizationMethod = "pretrained"

	// DiarizationClustering attributes whole chunks to speakers via
	// voice-embedding clustering.
	DiarizationClustering DiarizationMethod = "clustering"
)

// IsValid reports whether m is a recognised diarization method.
func (m DiarizationMethod) IsValid() bool {
	switch m {
	case DiarizationNone, DiarizationPretrained, DiarizationClustering:
		return true
	}
	return false
}

// Config is the root configuration structure for Polyglot.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader]
// on top of [Default], so every omitted field keeps its default value.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Audio       AudioConfig       `yaml:"audio"`
	VAD         VADConfig         `yaml:"vad"`
	Buffer      BufferConfig      `yaml:"buffer"`
	Diarization DiarizationConfig `yaml:"diarization"`
	Clustering  ClusteringConfig  `yaml:"clustering"`
	Transport   TransportConfig   `yaml:"transport"`
	Providers   ProvidersConfig   `yaml:"providers"`
}

// ServerConfig holds logging and metrics settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address the Prometheus scrape endpoint
	// listens on. Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// AudioConfig holds capture parameters.
type AudioConfig struct {
	// SampleRate is the capture sample rate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// ChunkSeconds is the fixed duration of each processing chunk.
	ChunkSeconds float64 `yaml:"chunk_seconds"`
}

// ChunkSamples returns the number of samples per chunk.
func (a AudioConfig) ChunkSamples() int {
	return int(a.ChunkSeconds * float64(a.SampleRate))
}

// VADConfig holds voice-activity-detection parameters.
type VADConfig struct {
	// Threshold is the speech probability above which a chunk counts as
	// speech, in (0, 1).
	Threshold float64 `yaml:"threshold"`
}

// BufferConfig holds the speaker-buffer flush thresholds.
type BufferConfig struct {
	// MaxAgeSeconds bounds how long text is buffered before translation.
	MaxAgeSeconds float64 `yaml:"max_age_seconds"`

	// MaxChars bounds the accumulated text size.
	MaxChars int `yaml:"max_chars"`

	// MaxIdleSeconds flushes a buffer that has stopped growing. Also
	// the continuous-silence duration that force-flushes.
	MaxIdleSeconds float64 `yaml:"max_idle_seconds"`
}

// MaxAge returns MaxAgeSeconds as a duration.
func (b BufferConfig) MaxAge() time.Duration {
	return time.Duration(b.MaxAgeSeconds * float64(time.Second))
}

// MaxIdle returns MaxIdleSeconds as a duration.
func (b BufferConfig) MaxIdle() time.Duration {
	return time.Duration(b.MaxIdleSeconds * float64(time.Second))
}

// DiarizationConfig selects the speaker-attribution method.
type DiarizationConfig struct {
	Method DiarizationMethod `yaml:"method"`
}

// ClusteringConfig holds the online speaker-clustering thresholds.
type ClusteringConfig struct {
	// HighConfidence is the cosine-similarity threshold for direct
	// assignment to an existing speaker profile.
	HighConfidence float64 `yaml:"high_confidence"`

	// Pending is the similarity threshold below HighConfidence above
	// which an embedding still updates its best-matching profile.
	// Embeddings below it are parked in the pending pool.
	Pending float64 `yaml:"pending"`

	// MinPendingSamples is the cluster size required to promote pending
	// embeddings into a new speaker profile.
	MinPendingSamples int `yaml:"min_pending_samples"`

	// DistanceThreshold is the cosine-distance cut for agglomerative
	// clustering of the pending pool.
	DistanceThreshold float64 `yaml:"distance_threshold"`

	// ProfileCap bounds the embedding history kept per speaker; the
	// oldest embedding is evicted beyond it.
	ProfileCap int `yaml:"profile_cap"`
}

// TransportConfig holds the downstream websocket settings.
type TransportConfig struct {
	// URL is the websocket endpoint events are delivered to. Empty
	// disables downstream delivery.
	URL string `yaml:"url"`

	// MaxRetries bounds connection attempts before sends become no-ops.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelaySeconds is the fixed delay between connection attempts.
	RetryDelaySeconds float64 `yaml:"retry_delay_seconds"`
}

// RetryDelay returns RetryDelaySeconds as a duration.
func (t TransportConfig) RetryDelay() time.Duration {
	return time.Duration(t.RetryDelaySeconds * float64(time.Second))
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named factory in the [Registry].
type ProvidersConfig struct {
	STT       ProviderEntry `yaml:"stt"`
	VAD       ProviderEntry `yaml:"vad"`
	Embedding ProviderEntry `yaml:"embedding"`

	// STTFallback, when set, is tried whenever the primary transcriber
	// fails or its circuit breaker is open.
	STTFallback ProviderEntry `yaml:"stt_fallback"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g. "whispercli", "openai", "native").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g. "medium", "large-v2", "whisper-1").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered
	// by the standard fields above.
	Options map[string]any `yaml:"options"`
}

// Default returns the full default configuration: the accuracy profile's
// model and chunking, the standard flush thresholds, and the clustering
// engine defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			LogLevel: LogInfo,
		},
		Audio: AudioConfig{
			SampleRate:   16000,
			ChunkSeconds: 10,
		},
		VAD: VADConfig{
			Threshold: 0.5,
		},
		Buffer: BufferConfig{
			MaxAgeSeconds:  60,
			MaxChars:       2000,
			MaxIdleSeconds: 5,
		},
		Diarization: DiarizationConfig{
			Method: DiarizationClustering,
		},
		Clustering: ClusteringConfig{
			HighConfidence:    0.7,
			Pending:           0.4,
			MinPendingSamples: 5,
			DistanceThreshold: 0.6,
			ProfileCap:        100,
		},
		Transport: TransportConfig{
			MaxRetries:        3,
			RetryDelaySeconds: 2,
		},
		Providers: ProvidersConfig{
			STT: ProviderEntry{Name: "whispercli", Model: "large-v2"},
			VAD: ProviderEntry{Name: "energy"},
		},
	}
}

// ApplyProfile overwrites the profile-controlled fields of c with the
// preset values for p: the transcription model, the chunk duration, and
// the diarization method. All other fields are left untouched.
func (c *Config) ApplyProfile(p Profile) {
	switch p {
	case ProfileSpeed:
		c.Providers.STT.Model = "medium"
		c.Audio.ChunkSeconds = 4
		c.Diarization.Method = DiarizationNone
	case ProfileAccuracy:
		c.Providers.STT.Model = "large-v2"
		c.Audio.ChunkSeconds = 10
		c.Diarization.Method = DiarizationClustering
	}
}
