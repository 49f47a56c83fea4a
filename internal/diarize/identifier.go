package diarize

import (
	"fmt"
	"log/slog"
	"sort"
)

// PendingLabel is the sentinel label returned by [Identifier.Identify] when
// an embedding has been parked in the pending pool. Callers must treat it
// as "no attribution yet", never as a real speaker identity.
const PendingLabel = "pending"

// Tuning thresholds for the two-tier identification scheme. Profiles are
// minted immediately only for clearly novel voices; ambiguous samples
// accumulate in the pending pool until clustering shows enough of them
// agree to justify a new identity. These are domain-tuned constants, not
// derived values.
const (
	// DefaultHighConfidence is the cosine similarity above which an
	// embedding is assigned to the best-matching profile outright.
	DefaultHighConfidence = 0.7

	// DefaultPendingThreshold is the similarity above which an ambiguous
	// embedding is parked in the pending pool instead of minting a new
	// profile.
	DefaultPendingThreshold = 0.4

	// DefaultMinPendingSamples is both the pool size that triggers a
	// promotion attempt and the minimum cluster size that may be promoted.
	DefaultMinPendingSamples = 5

	// DefaultDistanceThreshold is the average-linkage cosine distance
	// bound used when clustering the pending pool.
	DefaultDistanceThreshold = 0.6

	// DefaultProfileCap bounds the embedding history kept per profile;
	// the oldest embeddings are evicted first.
	DefaultProfileCap = 100
)

// Profile accumulates the embedding history for one recognised speaker.
// The representative vector used for matching is the element-wise median of
// the stored embeddings, which resists the occasional bad sample better
// than a running mean.
type Profile struct {
	// ID is the stable speaker label (e.g., "SPEAKER_00").
	ID string

	embeddings [][]float32
	cap        int
}

// Add appends an embedding to the profile's history, evicting the oldest
// entry once the cap is reached.
func (p *Profile) Add(emb []float32) {
	p.embeddings = append(p.embeddings, emb)
	if len(p.embeddings) > p.cap {
		p.embeddings = p.embeddings[len(p.embeddings)-p.cap:]
	}
}

// Size returns the number of stored embeddings.
func (p *Profile) Size() int { return len(p.embeddings) }

// Representative returns the element-wise median of the stored embeddings,
// or nil if the profile is empty.
func (p *Profile) Representative() []float32 {
	if len(p.embeddings) == 0 {
		return nil
	}
	dim := len(p.embeddings[0])
	rep := make([]float32, dim)
	col := make([]float64, len(p.embeddings))
	for d := 0; d < dim; d++ {
		for i, emb := range p.embeddings {
			col[i] = float64(emb[d])
		}
		sort.Float64s(col)
		n := len(col)
		if n%2 == 1 {
			rep[d] = float32(col[n/2])
		} else {
			rep[d] = float32((col[n/2-1] + col[n/2]) / 2)
		}
	}
	return rep
}

// IdentifierConfig holds the tuning knobs for an [Identifier]. Zero-value
// fields are replaced with the package defaults.
type IdentifierConfig struct {
	HighConfidence    float64
	PendingThreshold  float64
	MinPendingSamples int
	DistanceThreshold float64
	ProfileCap        int
}

// Identifier turns speaker embeddings into stable speaker labels via
// similarity matching against known profiles, with an incremental
// clustering pass that resolves ambiguous samples.
//
// An Identifier is owned by the pipeline's single consumer goroutine and is
// intentionally unsynchronised. Do not share one across goroutines.
type Identifier struct {
	cfg      IdentifierConfig
	profiles []*Profile
	pending  [][]float32
	nextID   int

	// onCreated, when non-nil, is invoked for every new profile. promoted
	// reports whether the profile came from a pending-pool promotion.
	onCreated func(id string, samples int, promoted bool)
}

// IdentifierOption is a functional option for [NewIdentifier].
type IdentifierOption func(*Identifier)

// WithOnSpeakerCreated registers a callback invoked whenever a new speaker
// profile is created, either directly or by pending-pool promotion.
func WithOnSpeakerCreated(fn func(id string, samples int, promoted bool)) IdentifierOption {
	return func(id *Identifier) { id.onCreated = fn }
}

// NewIdentifier creates an Identifier with the supplied configuration.
// Zero-value config fields are replaced with the package defaults.
func NewIdentifier(cfg IdentifierConfig, opts ...IdentifierOption) *Identifier {
	if cfg.HighConfidence <= 0 {
		cfg.HighConfidence = DefaultHighConfidence
	}
	if cfg.PendingThreshold <= 0 {
		cfg.PendingThreshold = DefaultPendingThreshold
	}
	if cfg.MinPendingSamples <= 0 {
		cfg.MinPendingSamples = DefaultMinPendingSamples
	}
	if cfg.DistanceThreshold <= 0 {
		cfg.DistanceThreshold = DefaultDistanceThreshold
	}
	if cfg.ProfileCap <= 0 {
		cfg.ProfileCap = DefaultProfileCap
	}
	ident := &Identifier{cfg: cfg}
	for _, o := range opts {
		o(ident)
	}
	return ident
}

// Profiles returns the current speaker profiles in creation order.
// Intended for testing and debugging.
func (id *Identifier) Profiles() []*Profile { return id.profiles }

// PendingCount returns the number of embeddings parked in the pending pool.
func (id *Identifier) PendingCount() int { return len(id.pending) }

// Identify resolves emb to a speaker label and a confidence score.
//
// The first-ever embedding mints a new profile at confidence 1.0. After
// that, emb is compared against every profile's representative vector and
// the outcome depends on the best cosine similarity found: above the
// high-confidence threshold the embedding joins that profile; above the
// pending threshold it is parked in the pending pool (possibly triggering
// a promotion pass); below it a new profile is minted outright.
func (id *Identifier) Identify(emb []float32) (string, float64) {
	if len(id.profiles) == 0 {
		return id.createProfile(emb), 1.0
	}

	best := -1
	bestSim := -1.0
	for i, p := range id.profiles {
		rep := p.Representative()
		if rep == nil {
			continue
		}
		// Ties keep the earlier profile: strictly-greater comparison over
		// creation order.
		if sim := dot(emb, rep); sim > bestSim {
			bestSim = sim
			best = i
		}
	}

	switch {
	case bestSim > id.cfg.HighConfidence:
		id.profiles[best].Add(emb)
		return id.profiles[best].ID, bestSim

	case bestSim > id.cfg.PendingThreshold:
		id.pending = append(id.pending, emb)
		if len(id.pending) >= id.cfg.MinPendingSamples {
			if promoted := id.tryPromotePending(); promoted != "" {
				return promoted, 0.6
			}
		}
		return PendingLabel, bestSim

	default:
		return id.createProfile(emb), 0.5
	}
}

// createProfile mints a new speaker profile seeded with emb.
func (id *Identifier) createProfile(emb []float32) string {
	p := &Profile{
		ID:  fmt.Sprintf("SPEAKER_%02d", id.nextID),
		cap: id.cfg.ProfileCap,
	}
	id.nextID++
	p.Add(emb)
	id.profiles = append(id.profiles, p)

	slog.Info("new speaker detected", "speaker", p.ID)
	if id.onCreated != nil {
		id.onCreated(p.ID, 1, false)
	}
	return p.ID
}

// tryPromotePending clusters the pending pool and, when the largest cluster
// reaches the minimum sample bar, materialises it as a new profile and
// removes its members from the pool. Every other pending embedding stays
// pending regardless of its cluster. Returns the new profile ID, or "" when
// promotion did not happen. Clustering failures are a deliberate no-op.
func (id *Identifier) tryPromotePending() string {
	if len(id.pending) < id.cfg.MinPendingSamples {
		return ""
	}

	labels, err := agglomerate(id.pending, id.cfg.DistanceThreshold)
	if err != nil {
		slog.Warn("pending promotion failed", "error", err)
		return ""
	}

	// Largest cluster; ties keep the lowest label.
	counts := map[int]int{}
	for _, l := range labels {
		counts[l]++
	}
	bestLabel, bestCount := -1, 0
	for l := 0; ; l++ {
		c, ok := counts[l]
		if !ok {
			break
		}
		if c > bestCount {
			bestLabel, bestCount = l, c
		}
	}
	if bestCount < id.cfg.MinPendingSamples {
		return ""
	}

	p := &Profile{
		ID:  fmt.Sprintf("SPEAKER_%02d", id.nextID),
		cap: id.cfg.ProfileCap,
	}
	id.nextID++

	var remaining [][]float32
	for i, emb := range id.pending {
		if labels[i] == bestLabel {
			p.Add(emb)
		} else {
			remaining = append(remaining, emb)
		}
	}
	id.pending = remaining
	id.profiles = append(id.profiles, p)

	slog.Info("promoted pending embeddings to new speaker",
		"speaker", p.ID, "samples", bestCount)
	if id.onCreated != nil {
		id.onCreated(p.ID, bestCount, true)
	}
	return p.ID
}
