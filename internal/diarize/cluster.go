package diarize

import (
	"errors"
	"math"
)

// errDegenerateInput is returned by agglomerate when the input contains
// vectors of mismatched dimension or non-finite components. Callers treat
// it as a failed (no-op) clustering pass.
var errDegenerateInput = errors.New("diarize: degenerate clustering input")

// cosineDistance returns 1 − a·b. Both vectors must be unit-normalized, so
// the dot product is the cosine similarity.
func cosineDistance(a, b []float32) float64 {
	return 1 - dot(a, b)
}

// dot returns the dot product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// agglomerate runs bottom-up agglomerative clustering over vecs using cosine
// distance and average linkage. Merging stops when the closest pair of
// clusters is farther apart than threshold; no fixed cluster count is
// imposed. It returns one cluster label per input vector, with labels in
// the range [0, nClusters).
func agglomerate(vecs [][]float32, threshold float64) ([]int, error) {
	n := len(vecs)
	if n == 0 {
		return nil, nil
	}
	dim := len(vecs[0])
	for _, v := range vecs {
		if len(v) != dim || dim == 0 {
			return nil, errDegenerateInput
		}
		for _, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				return nil, errDegenerateInput
			}
		}
	}

	// Pairwise point distances, computed once.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := cosineDistance(vecs[i], vecs[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	// Each cluster is a member list; merged clusters are set to nil.
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	// Average linkage: cluster distance is the mean pairwise point
	// distance. O(n³) overall, which is fine for pending pools that hold
	// at most a few dozen embeddings.
	linkage := func(a, b []int) float64 {
		var sum float64
		for _, i := range a {
			for _, j := range b {
				sum += dist[i][j]
			}
		}
		return sum / float64(len(a)*len(b))
	}

	for {
		bestA, bestB := -1, -1
		bestD := math.Inf(1)
		for a := 0; a < n; a++ {
			if clusters[a] == nil {
				continue
			}
			for b := a + 1; b < n; b++ {
				if clusters[b] == nil {
					continue
				}
				if d := linkage(clusters[a], clusters[b]); d < bestD {
					bestD = d
					bestA, bestB = a, b
				}
			}
		}
		if bestA < 0 || bestD > threshold {
			break
		}
		clusters[bestA] = append(clusters[bestA], clusters[bestB]...)
		clusters[bestB] = nil
	}

	// Compact surviving clusters into dense labels.
	labels := make([]int, n)
	next := 0
	for _, members := range clusters {
		if members == nil {
			continue
		}
		for _, i := range members {
			labels[i] = next
		}
		next++
	}
	return labels, nil
}
