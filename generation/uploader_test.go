package generation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/itemforge/ai/mock"
	"github.com/poiesic/itemforge/core"
	badgerstore "github.com/poiesic/itemforge/storage/badger"
)

func newTestUploader(t *testing.T, opts ...UploaderOption) (*Uploader, *mock.MockProvider, *badgerstore.Backend) {
	t.Helper()

	itemRepo, cpRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)

	provider := mock.NewMockProvider().(*mock.MockProvider)
	uploader, err := NewUploader(itemRepo, cpRepo, provider, opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		uploader.Release()
		backend.Close()
	})
	return uploader, provider, backend
}

func batchOf(items ...*core.ExamItem) *BatchResult {
	return &BatchResult{BatchId: "batch-1", Items: items}
}

func generatedItem(id string, tier core.QualityTier) *core.ExamItem {
	return &core.ExamItem{
		Id:       id,
		Topic:    "TP.2",
		Evidence: []string{"2.e: Understand the concept of adequacy of consideration and the principle of 'freedom of contract.'"},
		Stimulus: "Scenario for " + id,
		Stem:     "Which statement is correct?",
		Options: map[string]string{
			"A": "one", "B": "two", "C": "three", "D": "four",
		},
		CorrectAnswer:     "A",
		Rationale:         "Because.",
		Tier:              tier,
		OverallScore:      4.0,
		BatchId:           "batch-1",
		GenerationAttempt: 1,
	}
}

func TestUploadPersistsPendingItems(t *testing.T) {
	uploader, _, _ := newTestUploader(t)
	ctx := context.Background()

	result, err := uploader.Upload(ctx, "TP.2",
		batchOf(generatedItem("item-1", core.TierGold), generatedItem("item-2", core.TierSilver)))
	require.NoError(t, err)

	require.NotNil(t, result.Checkpoint)
	assert.Equal(t, "batch-1", result.Checkpoint.BatchId)
	assert.Equal(t, "TP.2", result.Checkpoint.Topic)
	assert.Equal(t, 2, result.Checkpoint.UploadedCount)
	assert.ElementsMatch(t, []string{"item-1", "item-2"}, result.Checkpoint.PendingItemIds)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Failures)

	stored, err := uploader.items.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPendingReview, stored.Status)
	require.NotEmpty(t, stored.Vector)

	// Stored vectors are unit length.
	var sumSquares float64
	for _, v := range stored.Vector {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-4)

	// The checkpoint is persisted, not just returned.
	cp, err := uploader.checkpoints.LoadCheckpoint(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, 2, cp.UploadedCount)
}

func TestUploadTierGate(t *testing.T) {
	uploader, _, _ := newTestUploader(t, WithMinTier(core.TierSilver))
	ctx := context.Background()

	result, err := uploader.Upload(ctx, "TP.2", batchOf(
		generatedItem("item-gold", core.TierGold),
		generatedItem("item-silver", core.TierSilver),
		generatedItem("item-bronze", core.TierBronze),
		generatedItem("item-weak", core.TierNeedsRevision),
	))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"item-gold", "item-silver"}, result.Checkpoint.PendingItemIds)
	assert.ElementsMatch(t, []string{"item-bronze", "item-weak"}, result.Skipped)

	_, err = uploader.items.GetItem(ctx, "item-bronze")
	assert.Error(t, err)
}

func TestUploadIsolatesEmbeddingFailures(t *testing.T) {
	uploader, provider, _ := newTestUploader(t)
	ctx := context.Background()

	embedder := provider.GetMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == generatedItem("item-bad", core.TierGold).ContentText() {
			return nil, errors.New("embedding service offline")
		}
		return []float32{1, 0, 0}, nil
	}

	result, err := uploader.Upload(ctx, "TP.2", batchOf(
		generatedItem("item-good", core.TierGold),
		generatedItem("item-bad", core.TierGold),
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"item-good"}, result.Checkpoint.PendingItemIds)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, core.ErrUpstream)
}
