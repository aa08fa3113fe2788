package analytics

import (
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/generation"
)

// GenerationStats summarizes a batch of freshly generated items: how hard the
// diversity gate had to work and how quality and answer keys distributed.
type GenerationStats struct {
	TotalItems  int
	AvgAttempts float64

	// DiversityFlagged counts items accepted with a similarity above the
	// gate threshold, which can only happen on the final attempt.
	DiversityFlagged int

	TierCounts      map[core.QualityTier]int
	AnswerKeyCounts map[string]int
}

// ComputeGenerationStats aggregates generation-trace metadata for a batch.
func ComputeGenerationStats(items []*core.ExamItem) *GenerationStats {
	stats := &GenerationStats{
		TotalItems:      len(items),
		TierCounts:      make(map[core.QualityTier]int),
		AnswerKeyCounts: make(map[string]int),
	}
	if len(items) == 0 {
		return stats
	}

	var attempts int
	for _, item := range items {
		attempts += item.GenerationAttempt
		if item.SimilarityAtGeneration > generation.SimilarityThreshold {
			stats.DiversityFlagged++
		}
		stats.TierCounts[item.Tier]++
		stats.AnswerKeyCounts[item.CorrectAnswer]++
	}
	stats.AvgAttempts = float64(attempts) / float64(len(items))

	return stats
}
