package pipeline

import (
	"strings"
	"time"
)

// Default flush thresholds. A buffer flushes when any single threshold is
// breached.
const (
	// DefaultMaxBufferAge bounds how long text is held before translation.
	DefaultMaxBufferAge = 60 * time.Second

	// DefaultMaxBufferChars bounds accumulated text size.
	DefaultMaxBufferChars = 2000

	// DefaultMaxIdle flushes a buffer that has stopped growing. The same
	// duration doubles as the silence-timeout threshold for gated chunks.
	DefaultMaxIdle = 5 * time.Second
)

// FlushPolicy holds the three independent flush thresholds. Each is an OR
// trigger: breaching any one of them flushes the buffer.
type FlushPolicy struct {
	MaxAge   time.Duration
	MaxChars int
	MaxIdle  time.Duration
}

// DefaultFlushPolicy returns the process-wide default thresholds.
func DefaultFlushPolicy() FlushPolicy {
	return FlushPolicy{
		MaxAge:   DefaultMaxBufferAge,
		MaxChars: DefaultMaxBufferChars,
		MaxIdle:  DefaultMaxIdle,
	}
}

// SpeakerBuffer accumulates transcribed text attributed to one speaker.
// It is a pure data component owned by the pipeline's consumer loop; all
// time-dependent predicates take an explicit now so tests stay
// deterministic.
type SpeakerBuffer struct {
	// Speaker is the attributed speaker label, empty for unknown.
	Speaker string

	chunks     []string
	start      time.Time
	lastUpdate time.Time
}

// NewSpeakerBuffer opens an empty buffer for the given speaker.
func NewSpeakerBuffer(speaker string, now time.Time) *SpeakerBuffer {
	return &SpeakerBuffer{
		Speaker:    speaker,
		start:      now,
		lastUpdate: now,
	}
}

// Add appends one chunk of text and bumps the last-update timestamp.
func (b *SpeakerBuffer) Add(text string, now time.Time) {
	b.chunks = append(b.chunks, text)
	b.lastUpdate = now
}

// ChunkCount returns the number of accumulated text chunks.
func (b *SpeakerBuffer) ChunkCount() int { return len(b.chunks) }

// FullText returns the accumulated chunks joined with single spaces.
func (b *SpeakerBuffer) FullText() string {
	return strings.Join(b.chunks, " ")
}

// CharCount returns the character count of FullText.
func (b *SpeakerBuffer) CharCount() int {
	return len(b.FullText())
}

// Age returns how long the buffer has existed.
func (b *SpeakerBuffer) Age(now time.Time) time.Duration {
	return now.Sub(b.start)
}

// Idle returns how long ago the buffer last grew.
func (b *SpeakerBuffer) Idle(now time.Time) time.Duration {
	return now.Sub(b.lastUpdate)
}

// ShouldFlush reports whether any threshold is breached for b at now.
func (p FlushPolicy) ShouldFlush(b *SpeakerBuffer, now time.Time) bool {
	return len(p.Reasons(b, now)) > 0
}

// Reasons returns one token per breached threshold, always in the fixed
// order age, size, idle. An empty slice means no flush is due.
func (p FlushPolicy) Reasons(b *SpeakerBuffer, now time.Time) []string {
	var reasons []string
	if b.Age(now) >= p.MaxAge {
		reasons = append(reasons, "age")
	}
	if b.CharCount() >= p.MaxChars {
		reasons = append(reasons, "size")
	}
	if b.Idle(now) >= p.MaxIdle {
		reasons = append(reasons, "idle")
	}
	return reasons
}
