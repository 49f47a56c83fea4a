// Package embedding defines the Extractor interface for speaker-embedding
// backends.
//
// An Extractor maps one chunk of PCM audio to a fixed-dimension,
// unit-normalized vector capturing the speaker's voice characteristics
// (e.g., an ECAPA-TDNN x-vector). The online clustering diarizer compares
// these vectors with cosine similarity to attribute chunks to speakers.
//
// All vectors returned by a single Extractor instance must share the same
// dimensionality; callers must not mix vectors from different extractors in
// the same similarity computation.
//
// Implementations must be safe for concurrent use.
package embedding

import "context"

// Extractor is the abstraction over any speaker-embedding backend.
type Extractor interface {
	// Extract computes the speaker embedding for one chunk of mono 16-bit
	// PCM samples. The returned vector is unit-normalized. A nil vector
	// with a nil error means the backend could not produce an embedding
	// for this chunk (e.g., too little voiced audio); the chunk is then
	// left unattributed rather than treated as a failure.
	Extract(ctx context.Context, pcm []int16) ([]float32, error)
}
