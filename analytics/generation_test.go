package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/itemforge/core"
)

func TestComputeGenerationStats(t *testing.T) {
	easy := itemWithStatus("item-1", core.StatusPendingReview, 4.6)
	easy.GenerationAttempt = 1
	easy.SimilarityAtGeneration = 0.12

	retried := itemWithStatus("item-2", core.StatusPendingReview, 3.9)
	retried.GenerationAttempt = 2
	retried.SimilarityAtGeneration = 0.4
	retried.CorrectAnswer = "C"

	flagged := itemWithStatus("item-3", core.StatusPendingReview, 3.7)
	flagged.GenerationAttempt = 3
	flagged.SimilarityAtGeneration = 0.88
	flagged.CorrectAnswer = "C"

	stats := ComputeGenerationStats([]*core.ExamItem{easy, retried, flagged})

	assert.Equal(t, 3, stats.TotalItems)
	assert.InDelta(t, 2.0, stats.AvgAttempts, 1e-9)
	assert.Equal(t, 1, stats.DiversityFlagged)
	assert.Equal(t, 1, stats.TierCounts[core.TierGold])
	assert.Equal(t, 2, stats.TierCounts[core.TierSilver])
	assert.Equal(t, map[string]int{"A": 1, "C": 2}, stats.AnswerKeyCounts)
}

func TestComputeGenerationStatsEmpty(t *testing.T) {
	stats := ComputeGenerationStats(nil)
	assert.Equal(t, 0, stats.TotalItems)
	assert.Zero(t, stats.AvgAttempts)
	assert.Empty(t, stats.TierCounts)
}
