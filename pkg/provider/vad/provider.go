// Package vad defines the Model interface for voice-activity detection
// backends.
//
// A VAD model scores one fixed-size window of PCM audio with a speech
// probability. The pipeline's gate splits each audio chunk into consecutive
// windows, asks the model for a score per window, and classifies the chunk
// from the maximum score. Models are consulted synchronously from the single
// pipeline consumer loop, so low per-call latency matters more than
// throughput.
//
// Implementations must be safe for concurrent use; the gate itself never
// calls a Model from more than one goroutine, but tests and future pipeline
// shapes may.
package vad

// WindowSize is the number of samples a Model scores per call. Silero-style
// detectors operate on 512-sample windows at 16 kHz (32 ms).
const WindowSize = 512

// Model scores audio windows with a speech probability.
type Model interface {
	// SpeechProbability returns the probability (0.0–1.0) that window
	// contains speech. The window must hold exactly WindowSize 16-bit
	// samples at the model's expected sample rate. Returns an error on
	// model failure; callers decide whether to fail open or closed.
	SpeechProbability(window []int16) (float64, error)
}
