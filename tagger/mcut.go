package tagger

import (
	"fmt"
	"sort"
)

// MCut computes the maximum-cut adaptive threshold (Largeron et al., 2012):
// the midpoint of the largest gap between consecutive scores in descending
// order. Ties on the gap size resolve to the highest-scoring gap, keeping the
// cut deterministic for identical input multisets.
func MCut(probs []float32) (float32, error) {
	if len(probs) < 2 {
		return 0, fmt.Errorf("%w: mcut needs at least 2 probabilities, got %d", ErrInsufficientData, len(probs))
	}

	sorted := make([]float32, len(probs))
	copy(sorted, probs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	t := 0
	maxGap := sorted[0] - sorted[1]
	for i := 1; i < len(sorted)-1; i++ {
		if gap := sorted[i] - sorted[i+1]; gap > maxGap {
			maxGap = gap
			t = i
		}
	}
	return (sorted[t] + sorted[t+1]) / 2, nil
}
