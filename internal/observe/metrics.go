// Package observe provides observability primitives for Polyglot:
// OpenTelemetry metrics with a Prometheus exporter bridge and a
// metrics-recording pipeline sink.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped from a standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Polyglot metrics.
const meterName = "github.com/b00ls0ck3t/Polyglot"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// VADDuration tracks voice-activity gating latency.
	VADDuration metric.Float64Histogram

	// TranscribeDuration tracks speech-to-text transcription latency.
	TranscribeDuration metric.Float64Histogram

	// DiarizeDuration tracks speaker-attribution latency.
	DiarizeDuration metric.Float64Histogram

	// --- Counters ---

	// Chunks counts processed audio chunks. Use with attribute:
	//   attribute.String("outcome", "speech"|"silence"|"discarded")
	Chunks metric.Int64Counter

	// BufferFlushes counts buffer flushes. Use with attribute:
	//   attribute.String("reason", ...)
	BufferFlushes metric.Int64Counter

	// EventsSent counts downstream events by type and status.
	EventsSent metric.Int64Counter

	// SpeakerPromotions counts pending-pool promotions to new speaker
	// profiles.
	SpeakerPromotions metric.Int64Counter

	// --- Gauges ---

	// KnownSpeakers tracks the number of established speaker profiles.
	KnownSpeakers metric.Int64UpDownCounter

	// QueueDepth observes the capture queue depth via the callback
	// registered with [Metrics.ObserveQueueDepth].
	QueueDepth metric.Int64ObservableGauge

	meter metric.Meter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// chunked speech-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{meter: m}

	// Histograms.
	if met.VADDuration, err = m.Float64Histogram("polyglot.vad.duration",
		metric.WithDescription("Latency of voice-activity gating per chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscribeDuration, err = m.Float64Histogram("polyglot.transcribe.duration",
		metric.WithDescription("Latency of speech-to-text transcription per chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DiarizeDuration, err = m.Float64Histogram("polyglot.diarize.duration",
		metric.WithDescription("Latency of speaker attribution per chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Chunks, err = m.Int64Counter("polyglot.chunks",
		metric.WithDescription("Total processed audio chunks by outcome."),
	); err != nil {
		return nil, err
	}
	if met.BufferFlushes, err = m.Int64Counter("polyglot.buffer.flushes",
		metric.WithDescription("Total speaker-buffer flushes by reason."),
	); err != nil {
		return nil, err
	}
	if met.EventsSent, err = m.Int64Counter("polyglot.events.sent",
		metric.WithDescription("Total downstream events by type and status."),
	); err != nil {
		return nil, err
	}
	if met.SpeakerPromotions, err = m.Int64Counter("polyglot.speaker.promotions",
		metric.WithDescription("Total pending-pool promotions to new speaker profiles."),
	); err != nil {
		return nil, err
	}

	// Gauges.
	if met.KnownSpeakers, err = m.Int64UpDownCounter("polyglot.speakers",
		metric.WithDescription("Number of established speaker profiles."),
	); err != nil {
		return nil, err
	}
	if met.QueueDepth, err = m.Int64ObservableGauge("polyglot.queue.depth",
		metric.WithDescription("Captured chunks waiting for processing."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// ObserveQueueDepth registers depth as the data source for the queue-depth
// gauge. The returned registration can be unregistered on shutdown.
func (m *Metrics) ObserveQueueDepth(depth func() int) (metric.Registration, error) {
	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(m.QueueDepth, int64(depth()))
		return nil
	}, m.QueueDepth)
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordChunk records one processed chunk with the given outcome.
func (m *Metrics) RecordChunk(ctx context.Context, outcome string) {
	m.Chunks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordFlush records one buffer flush with the given reason.
func (m *Metrics) RecordFlush(ctx context.Context, reason string) {
	m.BufferFlushes.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordEvent records one downstream event send attempt.
func (m *Metrics) RecordEvent(ctx context.Context, eventType, status string) {
	m.EventsSent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("status", status),
	))
}
