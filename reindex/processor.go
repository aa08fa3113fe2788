package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
)

// BatchProcessor regenerates embeddings for batches of exam items.
type BatchProcessor struct {
	items          storage.ItemRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(items storage.ItemRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		items:          items,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds each item's content text and writes the updated vectors
// back to the index. Vectors are normalized so cosine similarity stays
// consistent across the rebuilt index.
func (bp *BatchProcessor) Process(ctx context.Context, items []*core.ExamItem) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.ContentText()
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(items) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(items), len(embeddings))
	}

	for i := range items {
		items[i].Vector = core.NormalizeVector(embeddings[i])
	}

	if err := bp.items.UpsertItems(ctx, items...); err != nil {
		return fmt.Errorf("failed to update items: %w", err)
	}

	return nil
}
