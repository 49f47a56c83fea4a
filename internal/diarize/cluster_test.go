package diarize

import (
	"math"
	"testing"
)

func TestAgglomerate_Empty(t *testing.T) {
	labels, err := agglomerate(nil, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if labels != nil {
		t.Errorf("labels = %v, want nil", labels)
	}
}

func TestAgglomerate_TwoTightGroups(t *testing.T) {
	// Two groups of near-identical unit vectors on orthogonal axes.
	vecs := [][]float32{
		rotated(4, 0, 2, 0.00),
		rotated(4, 1, 2, 0.00),
		rotated(4, 0, 2, 0.02),
		rotated(4, 1, 2, 0.02),
		rotated(4, 0, 2, 0.04),
	}
	labels, err := agglomerate(vecs, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if labels[0] != labels[2] || labels[0] != labels[4] {
		t.Errorf("axis-0 group split: %v", labels)
	}
	if labels[1] != labels[3] {
		t.Errorf("axis-1 group split: %v", labels)
	}
	if labels[0] == labels[1] {
		t.Errorf("orthogonal groups merged: %v", labels)
	}
}

func TestAgglomerate_ThresholdBlocksMerging(t *testing.T) {
	// Orthogonal vectors are at cosine distance 1, above any reasonable
	// threshold, so every point stays a singleton.
	vecs := [][]float32{unit(3, 0), unit(3, 1), unit(3, 2)}
	labels, err := agglomerate(vecs, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[int]bool{}
	for _, l := range labels {
		if seen[l] {
			t.Fatalf("expected all singletons, got %v", labels)
		}
		seen[l] = true
	}
}

func TestAgglomerate_DegenerateInput(t *testing.T) {
	tests := []struct {
		name string
		vecs [][]float32
	}{
		{"mismatched dims", [][]float32{{1, 0}, {1}}},
		{"nan component", [][]float32{{float32(math.NaN()), 0}}},
		{"empty vector", [][]float32{{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := agglomerate(tt.vecs, 0.6); err == nil {
				t.Fatal("expected error for degenerate input")
			}
		})
	}
}

func TestCosineDistance(t *testing.T) {
	if d := cosineDistance(unit(2, 0), unit(2, 0)); d != 0 {
		t.Errorf("identical vectors: distance = %v, want 0", d)
	}
	if d := cosineDistance(unit(2, 0), unit(2, 1)); d != 1 {
		t.Errorf("orthogonal vectors: distance = %v, want 1", d)
	}
}
