// Package mock provides test doubles for the vad package interfaces.
//
// Use Model to script speech-probability responses and inspect the windows
// that were submitted for scoring.
package mock

import (
	"sync"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/vad"
)

// Model is a mock implementation of vad.Model.
type Model struct {
	mu sync.Mutex

	// Probabilities are returned in order, one per call. When exhausted,
	// Probability is returned instead.
	Probabilities []float64

	// Probability is the default result once Probabilities runs out.
	Probability float64

	// Err, if non-nil, is returned by every SpeechProbability call.
	Err error

	// Calls records a copy of every window passed to SpeechProbability.
	Calls [][]int16
}

// SpeechProbability records the call and returns the next scripted result.
func (m *Model) SpeechProbability(window []int16) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]int16, len(window))
	copy(cp, window)
	m.Calls = append(m.Calls, cp)
	if m.Err != nil {
		return 0, m.Err
	}
	if n := len(m.Calls) - 1; n < len(m.Probabilities) {
		return m.Probabilities[n], nil
	}
	return m.Probability, nil
}

// Reset clears all recorded calls. Thread-safe.
func (m *Model) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// Ensure Model implements vad.Model at compile time.
var _ vad.Model = (*Model)(nil)
