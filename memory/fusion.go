package memory

import (
	"sort"
)

// DefaultRRFConstant is the standard smoothing constant for reciprocal
// rank fusion. Larger values flatten the difference between ranks.
const DefaultRRFConstant = 60

// ReciprocalRankFusion combines multiple ranked result lists into one.
//
// Each item receives score = sum over lists of 1/(k + rank), with ranks
// starting at 1. Items appearing in several lists accumulate score, so
// agreement between sources outranks a single high placement. When k <= 0
// DefaultRRFConstant is used.
//
// The fused list is sorted by score descending; ties keep first-seen
// order. Ranks are reassigned 1..n and Source is set to "hybrid_rrf".
func ReciprocalRankFusion(lists [][]RetrievalResult, k int) []RetrievalResult {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	type fusedScore struct {
		item  Item
		score float64
		order int // first-seen position, for stable ties
	}

	scores := make(map[string]*fusedScore)
	seen := 0

	for _, list := range lists {
		for rank, result := range list {
			contribution := 1.0 / float64(k+rank+1)

			if existing, found := scores[result.Item.ID]; found {
				existing.score += contribution
			} else {
				scores[result.Item.ID] = &fusedScore{
					item:  result.Item,
					score: contribution,
					order: seen,
				}
				seen++
			}
		}
	}

	fused := make([]*fusedScore, 0, len(scores))
	for _, fs := range scores {
		fused = append(fused, fs)
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].order < fused[j].order
	})

	results := make([]RetrievalResult, len(fused))
	for i, fs := range fused {
		results[i] = RetrievalResult{
			Item:   fs.item,
			Score:  fs.score,
			Source: "hybrid_rrf",
			Rank:   i + 1,
		}
	}

	return results
}
