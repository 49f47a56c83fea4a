package pipeline

import (
	"log/slog"
	"sync"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/vad"
)

// DefaultVADThreshold is the speech probability above which a window
// counts as speech.
const DefaultVADThreshold = 0.5

// Gate classifies whole audio chunks as speech or non-speech by scoring
// consecutive fixed-size windows with a VAD model and taking the maximum
// probability.
//
// The gate fails open: with no model configured, or on any model error,
// every chunk is treated as speech. Missing a silent chunk costs one
// wasted transcription; dropping a speech chunk loses words.
type Gate struct {
	model     vad.Model
	threshold float64

	warnNoModel sync.Once
	warnErr     sync.Once
}

// NewGate creates a Gate. model may be nil, in which case the gate always
// reports speech. A threshold of 0 selects DefaultVADThreshold.
func NewGate(model vad.Model, threshold float64) *Gate {
	if threshold <= 0 {
		threshold = DefaultVADThreshold
	}
	return &Gate{model: model, threshold: threshold}
}

// ContainsSpeech reports whether pcm contains speech. The chunk is split
// into consecutive non-overlapping windows of vad.WindowSize samples; a
// trailing partial window is dropped. The chunk is speech when any
// window's probability exceeds the threshold.
func (g *Gate) ContainsSpeech(pcm []int16) bool {
	if g.model == nil {
		g.warnNoModel.Do(func() {
			slog.Warn("no VAD model configured, treating all audio as speech")
		})
		return true
	}

	maxProb := 0.0
	windows := 0
	for off := 0; off+vad.WindowSize <= len(pcm); off += vad.WindowSize {
		prob, err := g.model.SpeechProbability(pcm[off : off+vad.WindowSize])
		if err != nil {
			g.warnErr.Do(func() {
				slog.Warn("VAD model failed, failing open for affected chunks", "error", err)
			})
			return true
		}
		if prob > maxProb {
			maxProb = prob
		}
		windows++
	}
	if windows == 0 {
		// Chunk shorter than one window: nothing to score.
		return false
	}
	return maxProb > g.threshold
}
