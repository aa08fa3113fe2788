package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
	badgerstore "github.com/poiesic/itemforge/storage/badger"
)

func newTestCoordinator(t *testing.T) (*Coordinator, storage.ItemRepository, storage.CheckpointRepository) {
	t.Helper()

	items, checkpoints, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	coordinator, err := NewCoordinator(items, checkpoints)
	require.NoError(t, err)
	return coordinator, items, checkpoints
}

func pendingItem(id string) *core.ExamItem {
	return &core.ExamItem{
		Id:       id,
		Topic:    "TP.2",
		Evidence: []string{"2.e: Understand the concept of adequacy of consideration and the principle of 'freedom of contract.'"},
		Stimulus: "A landlord offers a tenant a rent reduction in exchange for repairs.",
		Stem:     "Which element of a valid contract is at issue?",
		Options: map[string]string{
			"A": "Consideration", "B": "Capacity", "C": "Legality", "D": "Offer",
		},
		CorrectAnswer:     "A",
		Rationale:         "The exchange of promises is consideration.",
		Status:            core.StatusPendingReview,
		Tier:              core.TierSilver,
		OverallScore:      4.0,
		BatchId:           "batch-1",
		GenerationAttempt: 1,
	}
}

func seedPending(t *testing.T, items storage.ItemRepository, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		require.NoError(t, items.UpsertItems(ctx, pendingItem(id)))
	}
}

func TestApplyDecisionUpvote(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	item, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionUpvote, "alice", "", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StatusApproved, item.Status)
	assert.Equal(t, core.DecisionUpvote, item.ReviewDecision)
	assert.Equal(t, "alice", item.ReviewedBy)
	assert.False(t, item.ReviewedAt.IsZero())
	assert.False(t, item.WasEdited)

	stored, err := items.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusApproved, stored.Status)
}

func TestApplyDecisionUpvoteWithEdits(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	edits := map[string]string{
		"stem":     "Which contract element does the rent-for-repairs exchange satisfy?",
		"option_b": "Mutual assent",
	}
	item, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionUpvote, "alice", "", edits)
	require.NoError(t, err)

	assert.Equal(t, core.StatusApprovedWithEdits, item.Status)
	assert.True(t, item.WasEdited)
	assert.Equal(t, "Edited fields: option_b, stem", item.EditSummary)

	assert.Equal(t, edits["stem"], item.Stem)
	assert.Equal(t, "Mutual assent", item.Options["B"])

	// Snapshot holds the pre-edit values of exactly the edited fields.
	require.NotNil(t, item.OriginalVersion)
	assert.Equal(t, map[string]string{
		"stem":     "Which element of a valid contract is at issue?",
		"option_b": "Capacity",
	}, item.OriginalVersion)
}

func TestApplyDecisionEditCorrectAnswer(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	item, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionUpvote, "alice", "",
		map[string]string{"correct_answer": "d"})
	require.NoError(t, err)
	assert.Equal(t, "D", item.CorrectAnswer)
	assert.Equal(t, "A", item.OriginalVersion["correct_answer"])
}

func TestApplyDecisionEditInvalidAnswerKey(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	_, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionUpvote, "alice", "",
		map[string]string{"correct_answer": "E"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestApplyDecisionDownvote(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	item, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionDownvote, "bob",
		"Distractor C is implausible.", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StatusRejected, item.Status)
	assert.Equal(t, "Distractor C is implausible.", item.ReviewExplanation)
	assert.Equal(t, "bob", item.ReviewedBy)
}

func TestApplyDecisionDownvoteRequiresExplanation(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	_, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionDownvote, "bob", "  ", nil)
	assert.ErrorIs(t, err, core.ErrExplanationRequired)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	stored, err := items.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPendingReview, stored.Status)
}

func TestApplyDecisionRejectsUnknownDecision(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	_, err := coordinator.ApplyDecision(ctx, "item-1", core.ReviewDecision("maybe"), "bob", "", nil)
	assert.ErrorIs(t, err, core.ErrUnknownDecision)
}

func TestApplyDecisionRejectsUneditableField(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	_, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionUpvote, "alice", "",
		map[string]string{"overall_score": "5.0"})
	assert.ErrorIs(t, err, core.ErrUneditableField)

	stored, err := items.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPendingReview, stored.Status)
	assert.False(t, stored.WasEdited)
}

func TestApplyDecisionRejectsTerminalItem(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1")

	_, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionUpvote, "alice", "", nil)
	require.NoError(t, err)

	before, err := items.GetItem(ctx, "item-1")
	require.NoError(t, err)

	_, err = coordinator.ApplyDecision(ctx, "item-1", core.DecisionDownvote, "bob", "changed my mind", nil)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	after, err := items.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.ReviewedBy, after.ReviewedBy)
	assert.Equal(t, before.ReviewDecision, after.ReviewDecision)
}

func TestApplyDecisionRejectsGoldStandard(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()

	seed := pendingItem("seed-1")
	seed.Status = core.StatusGoldStandard
	seed.BatchId = ""
	require.NoError(t, items.UpsertItems(ctx, seed))

	_, err := coordinator.ApplyDecision(ctx, "seed-1", core.DecisionUpvote, "alice", "", nil)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestApplyDecisionRejectsMissingItem(t *testing.T) {
	coordinator, _, _ := newTestCoordinator(t)

	_, err := coordinator.ApplyDecision(context.Background(), "no-such-item",
		core.DecisionUpvote, "alice", "", nil)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestApplyDecisionAdvancesCheckpoint(t *testing.T) {
	coordinator, items, checkpoints := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1", "item-2")

	require.NoError(t, checkpoints.SaveCheckpoint(ctx, &core.BatchCheckpoint{
		BatchId:        "batch-1",
		Topic:          "TP.2",
		PendingItemIds: []string{"item-1", "item-2"},
		UploadedCount:  2,
		CreatedAt:      time.Now().UTC(),
	}))

	_, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionUpvote, "alice", "", nil)
	require.NoError(t, err)

	cp, err := checkpoints.LoadCheckpoint(ctx, "batch-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"item-2"}, cp.PendingItemIds)
	assert.Equal(t, 1, cp.DecidedCount)
}

func TestPendingAndApprovedListings(t *testing.T) {
	coordinator, items, _ := newTestCoordinator(t)
	ctx := context.Background()
	seedPending(t, items, "item-1", "item-2", "item-3")

	_, err := coordinator.ApplyDecision(ctx, "item-1", core.DecisionUpvote, "alice", "", nil)
	require.NoError(t, err)
	_, err = coordinator.ApplyDecision(ctx, "item-2", core.DecisionUpvote, "alice", "",
		map[string]string{"stem": "Revised stem?"})
	require.NoError(t, err)

	pending, err := coordinator.Pending(ctx, "TP.2", 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "item-3", pending[0].Id)

	approved, err := coordinator.Approved(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, approved, 2)
}
