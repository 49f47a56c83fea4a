package observe

import (
	"context"
	"time"

	"github.com/b00ls0ck3t/Polyglot/internal/pipeline"
)

var _ pipeline.Sink = (*MetricsSink)(nil)

// MetricsSink translates pipeline state transitions into metric updates.
// Sink callbacks carry no context, so recordings use context.Background().
type MetricsSink struct {
	m *Metrics
}

// NewMetricsSink returns a sink recording into m, or into
// [DefaultMetrics] when m is nil.
func NewMetricsSink(m *Metrics) *MetricsSink {
	if m == nil {
		m = DefaultMetrics()
	}
	return &MetricsSink{m: m}
}

func (s *MetricsSink) ChunkGated(speech bool) {
	outcome := "silence"
	if speech {
		outcome = "speech"
	}
	s.m.RecordChunk(context.Background(), outcome)
}

func (s *MetricsSink) ChunkDiscarded(string) {
	s.m.RecordChunk(context.Background(), "discarded")
}

func (s *MetricsSink) BufferStarted(string) {}

func (s *MetricsSink) BufferFlushed(_ string, reason string, _, _ int) {
	s.m.RecordFlush(context.Background(), reason)
}

func (s *MetricsSink) SpeakerPromoted(_ string, _ int, promoted bool) {
	ctx := context.Background()
	s.m.KnownSpeakers.Add(ctx, 1)
	if promoted {
		s.m.SpeakerPromotions.Add(ctx, 1)
	}
}

func (s *MetricsSink) StageCompleted(stage string, elapsed time.Duration) {
	ctx := context.Background()
	switch stage {
	case "vad":
		s.m.VADDuration.Record(ctx, elapsed.Seconds())
	case "transcribe":
		s.m.TranscribeDuration.Record(ctx, elapsed.Seconds())
	case "diarize":
		s.m.DiarizeDuration.Record(ctx, elapsed.Seconds())
	}
}

func (s *MetricsSink) EventSent(eventType string, ok bool) {
	status := "sent"
	if !ok {
		status = "error"
	}
	s.m.RecordEvent(context.Background(), eventType, status)
}
