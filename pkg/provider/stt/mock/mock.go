// Package mock provides test doubles for the stt package interfaces.
//
// Use Transcriber to script transcription results and inspect the chunks
// that were submitted.
package mock

import (
	"context"
	"sync"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/stt"
)

// Transcriber is a mock implementation of stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Results are returned in order, one per call. When exhausted, Result
	// is returned instead.
	Results []string

	// Result is the default text once Results runs out.
	Result string

	// Err, if non-nil, is returned by every Transcribe call.
	Err error

	// Delay, if set, is how a call blocks before returning (subject to ctx
	// cancellation). Useful for exercising timeout paths.
	Delay func(ctx context.Context) error

	// Calls records a copy of every chunk passed to Transcribe.
	Calls [][]int16
}

// Transcribe records the call and returns the next scripted result.
func (tr *Transcriber) Transcribe(ctx context.Context, pcm []int16) (string, error) {
	tr.mu.Lock()
	cp := make([]int16, len(pcm))
	copy(cp, pcm)
	tr.Calls = append(tr.Calls, cp)
	n := len(tr.Calls) - 1
	delay := tr.Delay
	tr.mu.Unlock()

	if delay != nil {
		if err := delay(ctx); err != nil {
			return "", err
		}
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.Err != nil {
		return "", tr.Err
	}
	if n < len(tr.Results) {
		return tr.Results[n], nil
	}
	return tr.Result, nil
}

// CallCount returns the number of recorded Transcribe calls. Thread-safe.
func (tr *Transcriber) CallCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.Calls)
}

// Reset clears all recorded calls. Thread-safe.
func (tr *Transcriber) Reset() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.Calls = nil
}

// Ensure Transcriber implements stt.Transcriber at compile time.
var _ stt.Transcriber = (*Transcriber)(nil)
