package domain

const (
	baseScore       = 0.50
	dislikedScore   = 0.10
	previousPenalty = 0.20
	likedBonus      = 0.10
	favoriteBonus   = 0.20
	completionBonus = 0.10
)

// WeightedCandidates pairs candidate song ids with raw selection weights.
// SongIDs and Weights are parallel.
type WeightedCandidates struct {
	SongIDs []string
	Weights []float64
}

// Len returns the number of candidates.
func (c WeightedCandidates) Len() int {
	return len(c.SongIDs)
}

// Score returns the selection weight of song for mood, in [0, 1].
//
// A disliked song scores exactly 0.10 regardless of any other signal.
// Otherwise recent play, like, favorite and completion ratio adjust the
// 0.50 base additively. Flags count by membership: a song whose flag was
// set and later cleared keeps its key and still counts.
func Score(l Ledger, mood Mood, song string) float64 {
	h, ok := l[mood]
	if !ok || h == nil {
		return baseScore
	}

	if _, disliked := h.Disliked[song]; disliked {
		return dislikedScore
	}

	score := baseScore
	if contains(h.Previous, song) {
		score -= previousPenalty
	}
	if _, liked := h.Liked[song]; liked {
		score += likedBonus
	}
	if _, favorite := h.Favorite[song]; favorite {
		score += favoriteBonus
	}

	skipped, hasSkipped := h.Skipped[song]
	finished, hasFinished := h.Finished[song]
	if hasSkipped && hasFinished && skipped+finished > 0 {
		ratio := float64(finished) / float64(finished+skipped)
		score += completionBonus * ratio
	}

	return clamp(score, 0, 1)
}

// ScoreAll scores every song independently, preserving order and duplicates.
func ScoreAll(l Ledger, mood Mood, songs []string) WeightedCandidates {
	out := WeightedCandidates{
		SongIDs: make([]string, 0, len(songs)),
		Weights: make([]float64, 0, len(songs)),
	}
	for _, s := range songs {
		out.SongIDs = append(out.SongIDs, s)
		out.Weights = append(out.Weights, Score(l, mood, s))
	}
	return out
}

func contains(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
