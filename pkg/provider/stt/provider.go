// Package stt defines the Transcriber interface for speech-to-text backends.
//
// A Transcriber maps one fixed-duration chunk of PCM audio to plain text.
// The pipeline operates strictly chunk-at-a-time, so the interface is a
// single batch call rather than a streaming session: implementations wrap
// whisper.cpp (as a subprocess or via CGO bindings), the OpenAI
// transcription API, or any other engine that can score a few seconds of
// audio in one shot.
//
// An empty result string means "no speech recognised" and is not an error.
// Implementations must reserve the error return for genuine failures
// (process spawn failure, network errors, timeouts); the pipeline treats a
// failed transcription as empty text and keeps running.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Transcriber is the abstraction over any batch speech-to-text backend.
type Transcriber interface {
	// Transcribe converts one chunk of mono 16-bit PCM samples to text.
	// Returns the empty string when the chunk contains no recognisable
	// speech. Respects ctx cancellation and deadlines.
	Transcribe(ctx context.Context, pcm []int16) (string, error)
}
