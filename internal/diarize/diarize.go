// Package diarize attributes audio chunks to speakers.
//
// The [Diarizer] interface is the capability abstraction over the three
// attribution modes the pipeline supports:
//
//   - [None]: diarization disabled; every chunk is unattributed.
//   - a pretrained external pipeline that returns genuine time-stamped
//     segments (any client implementing [Diarizer] directly).
//   - [Clustering]: a lightweight online mode that extracts one speaker
//     embedding per chunk and resolves it to a stable label through the
//     [Identifier]'s profile/pending-pool scheme.
//
// The variant is selected once at startup; the pipeline holds a single
// Diarizer value and never switches modes at runtime.
package diarize

import (
	"context"
	"fmt"

	"github.com/b00ls0ck3t/Polyglot/pkg/provider/embedding"
)

// Segment is one time-stamped speaker turn within a chunk. Start and End
// are offsets in seconds from the beginning of the chunk.
type Segment struct {
	Start   float64
	End     float64
	Speaker string
}

// Attribution is the ordered sequence of speaker segments found in one
// chunk. An empty attribution means the chunk could not be attributed.
type Attribution []Segment

// DominantSpeaker returns the speaker with the greatest cumulative spoken
// duration across the attribution, or "" when the attribution is empty.
// Ties are broken in favour of the speaker encountered first.
func (a Attribution) DominantSpeaker() string {
	if len(a) == 0 {
		return ""
	}
	durations := make(map[string]float64, 4)
	var order []string
	for _, seg := range a {
		if _, seen := durations[seg.Speaker]; !seen {
			order = append(order, seg.Speaker)
		}
		durations[seg.Speaker] += seg.End - seg.Start
	}
	best := ""
	bestDur := -1.0
	for _, speaker := range order {
		if d := durations[speaker]; d > bestDur {
			best = speaker
			bestDur = d
		}
	}
	return best
}

// Diarizer attributes one chunk of mono 16-bit PCM audio to speakers.
type Diarizer interface {
	// Diarize returns the speaker attribution for pcm. An empty
	// attribution with a nil error is a valid result (no speaker found);
	// errors are reserved for backend failures, which the pipeline
	// recovers from by treating the chunk as unattributed.
	Diarize(ctx context.Context, pcm []int16) (Attribution, error)
}

// None is the Diarizer used when diarization is disabled. It attributes
// nothing and never fails.
type None struct{}

// Diarize always returns an empty attribution.
func (None) Diarize(context.Context, []int16) (Attribution, error) {
	return nil, nil
}

// Clustering implements online single-label diarization: one embedding is
// extracted per chunk and resolved through the [Identifier]. Because the
// embedding covers the whole chunk there is no intra-chunk timing; a
// successful attribution is a single segment spanning the full chunk.
type Clustering struct {
	extractor  embedding.Extractor
	identifier *Identifier
	sampleRate int
}

// NewClustering creates a Clustering diarizer. The identifier is owned by
// the caller so that speaker state can be inspected independently of the
// diarizer.
func NewClustering(extractor embedding.Extractor, identifier *Identifier, sampleRate int) *Clustering {
	return &Clustering{
		extractor:  extractor,
		identifier: identifier,
		sampleRate: sampleRate,
	}
}

// Diarize extracts the chunk's speaker embedding and maps it to a profile
// label. Chunks whose embedding lands in the pending pool are reported as
// unattributed; the pending label never leaks out of this package.
func (c *Clustering) Diarize(ctx context.Context, pcm []int16) (Attribution, error) {
	emb, err := c.extractor.Extract(ctx, pcm)
	if err != nil {
		return nil, fmt.Errorf("diarize: extract embedding: %w", err)
	}
	if emb == nil {
		return nil, nil
	}

	speaker, _ := c.identifier.Identify(emb)
	if speaker == PendingLabel {
		return nil, nil
	}

	duration := float64(len(pcm)) / float64(c.sampleRate)
	return Attribution{{Start: 0, End: duration, Speaker: speaker}}, nil
}

// Ensure both variants implement Diarizer at compile time.
var (
	_ Diarizer = None{}
	_ Diarizer = (*Clustering)(nil)
)
