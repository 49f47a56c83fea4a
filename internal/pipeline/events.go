package pipeline

import (
	"log/slog"
	"time"
)

// Sink receives pipeline state-transition notifications: chunk gating
// decisions, buffer lifecycle, and discards. It decouples progress
// reporting from the pipeline itself; implementations may log, record
// metrics, or both.
//
// Sink methods are invoked synchronously from the consumer loop and must
// not block.
type Sink interface {
	// ChunkGated reports the VAD decision for one captured chunk.
	ChunkGated(speech bool)

	// ChunkDiscarded reports a speech chunk that produced no buffer
	// mutation (empty transcription, processing failure).
	ChunkDiscarded(reason string)

	// BufferStarted reports that a new speaker buffer was opened.
	// speaker is empty for unattributed audio.
	BufferStarted(speaker string)

	// BufferFlushed reports a completed flush. reason names every
	// condition that triggered it.
	BufferFlushed(speaker, reason string, chunks, chars int)

	// SpeakerPromoted reports a new speaker identity, either detected
	// directly or promoted out of the pending pool.
	SpeakerPromoted(speaker string, samples int, promoted bool)

	// StageCompleted reports the latency of one processing stage for a
	// chunk. stage is "vad", "transcribe", or "diarize".
	StageCompleted(stage string, elapsed time.Duration)

	// EventSent reports a downstream delivery attempt and whether the
	// channel accepted it.
	EventSent(eventType string, ok bool)
}

// NopSink is a Sink that ignores every notification.
type NopSink struct{}

func (NopSink) ChunkGated(bool)                       {}
func (NopSink) ChunkDiscarded(string)                 {}
func (NopSink) BufferStarted(string)                  {}
func (NopSink) BufferFlushed(string, string, int, int) {}
func (NopSink) SpeakerPromoted(string, int, bool)     {}
func (NopSink) StageCompleted(string, time.Duration)  {}
func (NopSink) EventSent(string, bool)                {}

// LogSink is a Sink that reports transitions through slog. Gating
// decisions are logged at debug level to keep steady-state output quiet.
type LogSink struct{}

func (LogSink) ChunkGated(speech bool) {
	slog.Debug("chunk gated", "speech", speech)
}

func (LogSink) ChunkDiscarded(reason string) {
	slog.Debug("chunk discarded", "reason", reason)
}

func (LogSink) BufferStarted(speaker string) {
	if speaker == "" {
		speaker = "unknown"
	}
	slog.Info("buffer started", "speaker", speaker)
}

func (LogSink) BufferFlushed(speaker, reason string, chunks, chars int) {
	if speaker == "" {
		speaker = "unknown"
	}
	slog.Info("buffer flushed",
		"speaker", speaker, "reason", reason, "chunks", chunks, "chars", chars)
}

func (LogSink) SpeakerPromoted(speaker string, samples int, promoted bool) {
	slog.Info("speaker identified", "speaker", speaker, "samples", samples, "promoted", promoted)
}

func (LogSink) StageCompleted(stage string, elapsed time.Duration) {
	slog.Debug("stage completed", "stage", stage, "elapsed", elapsed)
}

func (LogSink) EventSent(eventType string, ok bool) {
	slog.Debug("event delivery attempted", "type", eventType, "ok", ok)
}

// MultiSink fans every notification out to each wrapped sink in order.
type MultiSink []Sink

func (m MultiSink) ChunkGated(speech bool) {
	for _, s := range m {
		s.ChunkGated(speech)
	}
}

func (m MultiSink) ChunkDiscarded(reason string) {
	for _, s := range m {
		s.ChunkDiscarded(reason)
	}
}

func (m MultiSink) BufferStarted(speaker string) {
	for _, s := range m {
		s.BufferStarted(speaker)
	}
}

func (m MultiSink) BufferFlushed(speaker, reason string, chunks, chars int) {
	for _, s := range m {
		s.BufferFlushed(speaker, reason, chunks, chars)
	}
}

func (m MultiSink) SpeakerPromoted(speaker string, samples int, promoted bool) {
	for _, s := range m {
		s.SpeakerPromoted(speaker, samples, promoted)
	}
}

func (m MultiSink) StageCompleted(stage string, elapsed time.Duration) {
	for _, s := range m {
		s.StageCompleted(stage, elapsed)
	}
}

func (m MultiSink) EventSent(eventType string, ok bool) {
	for _, s := range m {
		s.EventSent(eventType, ok)
	}
}
