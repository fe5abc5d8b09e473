package memory

import "github.com/becomeliminal/recall-go-sdk/core"

// Similarity converts a search hit's distance to a score in (0, 1],
// where 1 means identical. A hit with no distance scores 0.0, which
// keeps it out of every decision band above the add threshold.
func Similarity(hit core.SearchHit) float64 {
	if hit.Distance == nil {
		return 0.0
	}
	return 1.0 / (1.0 + *hit.Distance)
}

// Score pairs each hit with its similarity, preserving order.
func Score(hits []core.SearchHit) []core.Neighbor {
	neighbors := make([]core.Neighbor, 0, len(hits))
	for _, hit := range hits {
		neighbors = append(neighbors, core.Neighbor{
			Record:     hit.Record,
			Similarity: Similarity(hit),
		})
	}
	return neighbors
}
