// Package mock provides test doubles for the embedding package interfaces.
//
// Use Extractor to script embedding vectors and inspect the chunks that
// were submitted for extraction.
package mock

import (
	"context"
	"sync"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding"
)

// Extractor is a mock implementation of embedding.Extractor.
type Extractor struct {
	mu sync.Mutex

	// Vectors are returned in order, one per call. When exhausted, Vector
	// is returned instead.
	Vectors [][]float32

	// Vector is the default result once Vectors runs out. May be nil.
	Vector []float32

	// Err, if non-nil, is returned by every Extract call.
	Err error

	// CallCount is the number of Extract calls recorded.
	CallCount int
}

// Extract records the call and returns the next scripted vector.
func (e *Extractor) Extract(ctx context.Context, pcm []int16) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.CallCount
	e.CallCount++
	if e.Err != nil {
		return nil, e.Err
	}
	if n < len(e.Vectors) {
		return e.Vectors[n], nil
	}
	return e.Vector, nil
}

// Reset clears all recorded calls. Thread-safe.
func (e *Extractor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CallCount = 0
}

// Ensure Extractor implements embedding.Extractor at compile time.
var _ embedding.Extractor = (*Extractor)(nil)
