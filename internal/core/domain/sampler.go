package domain

import "fmt"

// RandomSource yields uniform values in [0, 1). *rand.Rand from math/rand/v2
// satisfies it.
type RandomSource interface {
	Float64() float64
}

// NormalizeWeights scales weights so they sum to 1. It returns
// ErrEmptyCandidateSet for empty input or a non-positive sum.
func NormalizeWeights(weights []float64) ([]float64, error) {
	if len(weights) == 0 {
		return nil, ErrEmptyCandidateSet
	}
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("domain: negative weight %v", w)
		}
		sum += w
	}
	if !(sum > 0) {
		return nil, ErrEmptyCandidateSet
	}

	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out, nil
}

// Draw picks one song id with probability equal to its normalized weight.
// The candidate set is not modified.
func Draw(c WeightedCandidates, src RandomSource) (string, error) {
	if len(c.SongIDs) != len(c.Weights) {
		return "", fmt.Errorf("domain: candidate ids and weights differ in length (%d != %d)", len(c.SongIDs), len(c.Weights))
	}
	probs, err := NormalizeWeights(c.Weights)
	if err != nil {
		return "", err
	}

	r := src.Float64()
	var cumulative float64
	last := -1
	for i, p := range probs {
		if p <= 0 {
			continue
		}
		last = i
		cumulative += p
		if r < cumulative {
			return c.SongIDs[i], nil
		}
	}
	// Rounding can leave cumulative just under 1.
	return c.SongIDs[last], nil
}
