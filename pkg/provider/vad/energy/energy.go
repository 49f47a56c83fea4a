// Package energy provides an RMS-energy-based vad.Model.
//
// It approximates speech probability from the root-mean-square level of a
// window, mapped linearly between a noise floor and a full-scale reference.
// This is far cruder than a neural detector but needs no external model and
// works as a fallback when none is configured.
package energy

import (
	"fmt"
	"math"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/vad"
)

// defaultNoiseFloor is the RMS level (in 16-bit PCM units) treated as
// certain silence. 300 corresponds to near-silence on typical microphones.
const defaultNoiseFloor = 300.0

// defaultSpeechRMS is the RMS level treated as certain speech.
const defaultSpeechRMS = 3000.0

// Model implements vad.Model using RMS energy.
type Model struct {
	noiseFloor float64
	speechRMS  float64
}

// Option is a functional option for configuring a Model.
type Option func(*Model)

// WithNoiseFloor sets the RMS level below which probability is 0.
func WithNoiseFloor(rms float64) Option {
	return func(m *Model) { m.noiseFloor = rms }
}

// WithSpeechRMS sets the RMS level at or above which probability is 1.
func WithSpeechRMS(rms float64) Option {
	return func(m *Model) { m.speechRMS = rms }
}

// New creates an energy Model with the given options.
func New(opts ...Option) *Model {
	m := &Model{
		noiseFloor: defaultNoiseFloor,
		speechRMS:  defaultSpeechRMS,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// SpeechProbability maps the window's RMS level to [0, 1].
func (m *Model) SpeechProbability(window []int16) (float64, error) {
	if len(window) == 0 {
		return 0, fmt.Errorf("energy: empty window")
	}

	var sum float64
	for _, s := range window {
		f := float64(s)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(window)))

	switch {
	case rms <= m.noiseFloor:
		return 0, nil
	case rms >= m.speechRMS:
		return 1, nil
	default:
		return (rms - m.noiseFloor) / (m.speechRMS - m.noiseFloor), nil
	}
}

// Ensure Model implements vad.Model at compile time.
var _ vad.Model = (*Model)(nil)
