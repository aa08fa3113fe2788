package reindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/itemforge/ai/mock"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
	badgerstore "github.com/poiesic/itemforge/storage/badger"
)

func seedItems(t *testing.T, items storage.ItemRepository, count int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < count; i++ {
		item := &core.ExamItem{
			Id:       fmt.Sprintf("item-%03d", i),
			Topic:    "TP.2",
			Stimulus: fmt.Sprintf("Scenario %d", i),
			Stem:     "Which statement is correct?",
			Options: map[string]string{
				"A": "one", "B": "two", "C": "three", "D": "four",
			},
			CorrectAnswer:     "A",
			Status:            core.StatusPendingReview,
			GenerationAttempt: 1,
			Vector:            []float32{1, 0, 0},
		}
		require.NoError(t, items.UpsertItems(ctx, item))
	}
}

func TestItemIteratorPagesThroughIndex(t *testing.T) {
	items, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	seedItems(t, items, 7)

	iterator := NewItemIterator(items, 3)
	var pages []int
	seen := make(map[string]bool)
	err = iterator.ForEach(context.Background(), func(page []*core.ExamItem) error {
		pages = append(pages, len(page))
		for _, item := range page {
			seen[item.Id] = true
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 1}, pages)
	assert.Len(t, seen, 7)
}

func TestItemIteratorStopsOnCallbackError(t *testing.T) {
	items, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	seedItems(t, items, 5)

	calls := 0
	wantErr := errors.New("stop here")
	iterator := NewItemIterator(items, 2)
	err = iterator.ForEach(context.Background(), func(page []*core.ExamItem) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestReindexerRewritesAllVectors(t *testing.T) {
	items, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	seedItems(t, items, 5)

	provider := mock.NewMockProvider().(*mock.MockProvider)
	embedder := provider.GetMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{0, 2, 0}
		}
		return vectors, nil
	}

	var out bytes.Buffer
	reindexer := NewReindexer(items, embedder, &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}, &out)

	require.NoError(t, reindexer.Run(context.Background()))

	stored, err := items.GetItem(context.Background(), "item-000")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0}, stored.Vector, "new vector should be normalized")
	assert.Contains(t, out.String(), "Reindex complete")
}

func TestReindexerRetriesTransientEmbeddingFailures(t *testing.T) {
	items, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	seedItems(t, items, 2)

	provider := mock.NewMockProvider().(*mock.MockProvider)
	embedder := provider.GetMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("rate limited")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1, 0, 0}
		}
		return vectors, nil
	}

	var out bytes.Buffer
	reindexer := NewReindexer(items, embedder, &Config{
		BatchSize:      10,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}, &out)

	require.NoError(t, reindexer.Run(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestReindexerEmptyIndex(t *testing.T) {
	items, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider().(*mock.MockProvider)

	var out bytes.Buffer
	reindexer := NewReindexer(items, provider.Embedder(), nil, &out)
	require.NoError(t, reindexer.Run(context.Background()))
	assert.Contains(t, out.String(), "No items found")
}
