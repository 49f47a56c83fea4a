// Package transport delivers pipeline events to the downstream
// translation/display service.
//
// The pipeline emits two event shapes: immediate per-chunk transcriptions
// (best-effort, fire-and-forget) and batched translation requests produced
// when a speaker buffer flushes. The [Channel] interface hides the wire
// behind those two shapes; the websocket implementation handles
// reconnection with bounded retries and degrades to a no-op when the
// downstream stays unreachable, so the local pipeline keeps running
// regardless of delivery.
package transport

import "context"

// EventType distinguishes the two downstream event shapes.
type EventType string

const (
	// EventTranscription is a live per-chunk transcription with no
	// translation attached.
	EventTranscription EventType = "transcription"

	// EventTranslate requests translation of a flushed speaker buffer.
	EventTranslate EventType = "translate"
)

// Event is the JSON payload sent downstream. Speaker is empty when the
// chunk could not be attributed; the field is omitted on the wire in that
// case.
type Event struct {
	Type    EventType `json:"type"`
	Text    string    `json:"text"`
	Speaker string    `json:"speaker,omitempty"`
}

// Channel is a sink for downstream events.
//
// Implementations must be safe for concurrent use: live-transcription and
// batched-translation events may be emitted from different call sites.
type Channel interface {
	// Send delivers ev downstream. Implementations may drop events when
	// the downstream is unreachable; a nil error does not guarantee
	// delivery, only that the pipeline may proceed.
	Send(ctx context.Context, ev Event) error

	// Close tears down the underlying connection. Safe to call more than
	// once.
	Close() error
}
