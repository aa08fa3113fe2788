package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
)

func testItem(id, topic string, status core.ReviewStatus) *core.ExamItem {
	return &core.ExamItem{
		Id:    id,
		Topic: topic,
		Evidence: []string{
			"2.e: Understand the concept of adequacy of consideration and the principle of 'freedom of contract.'",
		},
		Stimulus: "A collector offers a neighbor one dollar for a painting worth far more.",
		Stem:     "Is the promise supported by consideration?",
		Options: map[string]string{
			"A": "Yes, courts do not weigh adequacy.",
			"B": "No, the exchange is too one-sided.",
			"C": "Only if a court finds the price fair.",
			"D": "Only if the painting is appraised first.",
		},
		CorrectAnswer:     "A",
		Rationale:         "Courts generally do not inquire into the adequacy of consideration.",
		Status:            status,
		Tier:              core.TierSilver,
		GenerationAttempt: 1,
	}
}

func TestItemBasics(t *testing.T) {
	itemRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { itemRepo.Close(); backend.Close() }()

	ctx := context.Background()

	item := testItem("item-1", "TP.2", core.StatusPendingReview)
	if err := itemRepo.UpsertItems(ctx, item); err != nil {
		t.Fatalf("Failed to upsert item: %v", err)
	}

	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("Expected timestamps to be set on insert")
	}

	retrieved, err := itemRepo.GetItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if retrieved.Stem != item.Stem {
		t.Fatalf("Expected stem %q, got %q", item.Stem, retrieved.Stem)
	}
	if len(retrieved.Options) != 4 {
		t.Fatalf("Expected 4 options, got %d", len(retrieved.Options))
	}

	// Missing item
	_, err = itemRepo.GetItem(ctx, "no-such-item")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	// Upsert without an id is rejected
	if err := itemRepo.UpsertItems(ctx, &core.ExamItem{}); !errors.Is(err, storage.ErrInvalidQuery) {
		t.Fatalf("Expected ErrInvalidQuery, got %v", err)
	}
}

func TestItemUpsertReplacesAndReindexes(t *testing.T) {
	itemRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { itemRepo.Close(); backend.Close() }()

	ctx := context.Background()

	item := testItem("item-1", "TP.2", core.StatusPendingReview)
	if err := itemRepo.UpsertItems(ctx, item); err != nil {
		t.Fatalf("Failed to upsert item: %v", err)
	}
	created := item.CreatedAt

	// Move to approved and write again under the same id.
	item.Status = core.StatusApproved
	if err := itemRepo.UpsertItems(ctx, item); err != nil {
		t.Fatalf("Failed to re-upsert item: %v", err)
	}

	if !item.CreatedAt.Equal(created) {
		t.Fatal("Expected CreatedAt to survive replacement")
	}

	pending, err := itemRepo.Query(ctx, storage.ItemQuery{Status: core.StatusPendingReview})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("Expected old status index entry gone, got %d items", len(pending))
	}

	approved, err := itemRepo.Query(ctx, storage.ItemQuery{Status: core.StatusApproved})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(approved) != 1 || approved[0].Id != "item-1" {
		t.Fatalf("Expected item under new status, got %v", approved)
	}
}

func TestItemQueryFilters(t *testing.T) {
	itemRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { itemRepo.Close(); backend.Close() }()

	ctx := context.Background()

	a := testItem("item-a", "TP.2", core.StatusPendingReview)
	b := testItem("item-b", "TP.2", core.StatusApproved)
	b.Tier = core.TierGold
	c := testItem("item-c", "TP.9", core.StatusApproved)

	if err := itemRepo.UpsertItems(ctx, a, b, c); err != nil {
		t.Fatalf("Failed to upsert items: %v", err)
	}

	byTopic, err := itemRepo.Query(ctx, storage.ItemQuery{Topic: "TP.2"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byTopic) != 2 {
		t.Fatalf("Expected 2 items for TP.2, got %d", len(byTopic))
	}

	byStatusAndTier, err := itemRepo.Query(ctx, storage.ItemQuery{
		Status: core.StatusApproved,
		Tier:   core.TierGold,
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(byStatusAndTier) != 1 || byStatusAndTier[0].Id != "item-b" {
		t.Fatalf("Expected only item-b, got %v", byStatusAndTier)
	}

	// Paging over the full set: index order is id order.
	page, err := itemRepo.Query(ctx, storage.ItemQuery{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(page) != 2 || page[0].Id != "item-b" || page[1].Id != "item-c" {
		t.Fatalf("Unexpected page contents: %v", page)
	}

	if _, err := itemRepo.Query(ctx, storage.ItemQuery{Limit: -1}); !errors.Is(err, storage.ErrInvalidQuery) {
		t.Fatalf("Expected ErrInvalidQuery for negative limit, got %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	itemRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { itemRepo.Close(); backend.Close() }()

	ctx := context.Background()

	items := []*core.ExamItem{
		testItem("item-1", "TP.2", core.StatusPendingReview),
		testItem("item-2", "TP.2", core.StatusPendingReview),
		testItem("item-3", "TP.2", core.StatusApproved),
		testItem("item-4", "TP.9", core.StatusRejected),
	}
	if err := itemRepo.UpsertItems(ctx, items...); err != nil {
		t.Fatalf("Failed to upsert items: %v", err)
	}

	counts, err := itemRepo.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}

	if counts[core.StatusPendingReview] != 2 {
		t.Fatalf("Expected 2 pending, got %d", counts[core.StatusPendingReview])
	}
	if counts[core.StatusApproved] != 1 {
		t.Fatalf("Expected 1 approved, got %d", counts[core.StatusApproved])
	}
	if counts[core.StatusRejected] != 1 {
		t.Fatalf("Expected 1 rejected, got %d", counts[core.StatusRejected])
	}
}

func TestFindSimilar(t *testing.T) {
	itemRepo, _, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { itemRepo.Close(); backend.Close() }()

	ctx := context.Background()

	near := testItem("item-near", "TP.2", core.StatusApproved)
	near.Vector = []float32{1, 0, 0}
	far := testItem("item-far", "TP.2", core.StatusApproved)
	far.Vector = []float32{0, 1, 0}
	noVec := testItem("item-novec", "TP.2", core.StatusApproved)

	if err := itemRepo.UpsertItems(ctx, near, far, noVec); err != nil {
		t.Fatalf("Failed to upsert items: %v", err)
	}

	matches, err := itemRepo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if matches[0].Item.Id != "item-near" {
		t.Fatalf("Expected item-near, got %s", matches[0].Item.Id)
	}
	if matches[0].Score < 0.99 {
		t.Fatalf("Expected similarity ~1.0, got %f", matches[0].Score)
	}

	// Items without vectors never match, and low thresholds return both
	// vectored items ordered by score.
	matches, err = itemRepo.FindSimilar(ctx, []float32{0.8, 0.6, 0}, 0.1, 10)
	if err != nil {
		t.Fatalf("FindSimilar failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].Score < matches[1].Score {
		t.Fatal("Expected matches ordered by similarity descending")
	}
}
