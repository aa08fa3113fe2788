// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
)

// Coordinator applies human review decisions to pending items and keeps the
// batch checkpoints in step with the decisions made.
//
// Review writes are last-write-wins point upserts; there is no version field
// to detect two reviewers racing on the same item.
type Coordinator struct {
	items       storage.ItemRepository
	checkpoints storage.CheckpointRepository
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a review coordinator.
func NewCoordinator(
	items storage.ItemRepository,
	checkpoints storage.CheckpointRepository,
	opts ...Option,
) (*Coordinator, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}

	c := &Coordinator{
		items:       items,
		checkpoints: checkpoints,
		logger:      slog.Default().With("component", "review"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// editableFields are the item fields a reviewer may change on an upvote with
// edits. Option edits address individual options as option_a through option_d.
var editableFields = []string{
	"stimulus",
	"stem",
	"rationale",
	"correct_answer",
	"option_a",
	"option_b",
	"option_c",
	"option_d",
}

// ApplyDecision applies a reviewer's verdict to the item with the given id
// and persists the result.
//
// Upvote without edits transitions the item to approved. Upvote with edits
// snapshots the pre-edit values of the edited fields, applies the new values
// and transitions to approved_with_edits. Downvote requires an explanation
// and transitions to rejected.
//
// Items in a terminal state, and gold-standard seeds, reject further
// decisions with core.ErrInvalidState and are left unchanged.
func (c *Coordinator) ApplyDecision(
	ctx context.Context,
	itemId string,
	decision core.ReviewDecision,
	reviewer string,
	explanation string,
	edits map[string]string,
) (*core.ExamItem, error) {
	if err := core.ValidateDecision(decision); err != nil {
		return nil, err
	}
	if decision == core.DecisionDownvote && strings.TrimSpace(explanation) == "" {
		return nil, core.ErrExplanationRequired
	}
	for field := range edits {
		if !slices.Contains(editableFields, field) {
			return nil, fmt.Errorf("%w: %q", core.ErrUneditableField, field)
		}
	}

	item, err := c.items.GetItem(ctx, itemId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: item %q not found", core.ErrInvalidState, itemId)
		}
		return nil, core.Upstreamf("load item for review", err)
	}

	if item.Status.Terminal() || item.Status == core.StatusGoldStandard {
		return nil, fmt.Errorf("%w: item %q is %s", core.ErrInvalidState, itemId, item.Status)
	}

	switch decision {
	case core.DecisionUpvote:
		if len(edits) > 0 {
			if err := c.applyEdits(item, edits); err != nil {
				return nil, err
			}
			item.Status = core.StatusApprovedWithEdits
		} else {
			item.Status = core.StatusApproved
		}
	case core.DecisionDownvote:
		item.Status = core.StatusRejected
	}

	item.ReviewDecision = decision
	item.ReviewExplanation = explanation
	item.ReviewedBy = reviewer
	item.ReviewedAt = time.Now().UTC()

	if err := c.items.UpsertItems(ctx, item); err != nil {
		return nil, core.Upstreamf("persist review decision", err)
	}

	if err := c.advanceCheckpoint(ctx, item); err != nil {
		c.logger.Warn("failed to advance batch checkpoint",
			"item", item.Id,
			"batch", item.BatchId,
			"err", err)
	}

	c.logger.Info("review decision applied",
		"item", item.Id,
		"decision", decision,
		"status", item.Status,
		"reviewer", reviewer)
	return item, nil
}

// applyEdits snapshots and overwrites the edited fields. The first edit wins
// as the original: a field already present in the snapshot keeps its earlier
// pre-edit value.
func (c *Coordinator) applyEdits(item *core.ExamItem, edits map[string]string) error {
	if item.OriginalVersion == nil {
		item.OriginalVersion = make(map[string]string, len(edits))
	}

	fields := make([]string, 0, len(edits))
	for field, value := range edits {
		old, err := c.setField(item, field, value)
		if err != nil {
			return err
		}
		if _, ok := item.OriginalVersion[field]; !ok {
			item.OriginalVersion[field] = old
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	item.WasEdited = true
	item.EditSummary = "Edited fields: " + strings.Join(fields, ", ")
	return core.ValidateOptions(item.Options, item.CorrectAnswer)
}

// setField writes value into the named field and returns the value it
// replaced.
func (c *Coordinator) setField(item *core.ExamItem, field, value string) (string, error) {
	switch field {
	case "stimulus":
		old := item.Stimulus
		item.Stimulus = value
		return old, nil
	case "stem":
		old := item.Stem
		item.Stem = value
		return old, nil
	case "rationale":
		old := item.Rationale
		item.Rationale = value
		return old, nil
	case "correct_answer":
		old := item.CorrectAnswer
		item.CorrectAnswer = strings.ToUpper(strings.TrimSpace(value))
		return old, nil
	case "option_a", "option_b", "option_c", "option_d":
		key := strings.ToUpper(field[len("option_"):])
		if item.Options == nil {
			item.Options = make(map[string]string, len(core.OptionKeys))
		}
		old := item.Options[key]
		item.Options[key] = value
		return old, nil
	}
	return "", fmt.Errorf("%w: %q", core.ErrUneditableField, field)
}

// advanceCheckpoint removes the item from its batch's pending list and bumps
// the decided count. Items without a batch, such as gold-standard seeds, have
// no checkpoint and are skipped.
func (c *Coordinator) advanceCheckpoint(ctx context.Context, item *core.ExamItem) error {
	if item.BatchId == "" {
		return nil
	}

	cp, err := c.checkpoints.LoadCheckpoint(ctx, item.BatchId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	before := len(cp.PendingItemIds)
	cp.PendingItemIds = slices.DeleteFunc(cp.PendingItemIds, func(id string) bool {
		return id == item.Id
	})
	if len(cp.PendingItemIds) == before {
		return nil
	}
	cp.DecidedCount++

	return c.checkpoints.SaveCheckpoint(ctx, cp)
}

// Pending lists items awaiting review, optionally filtered by topic.
func (c *Coordinator) Pending(ctx context.Context, topic string, limit int) ([]*core.ExamItem, error) {
	return c.items.Query(ctx, storage.ItemQuery{
		Status: core.StatusPendingReview,
		Topic:  topic,
		Limit:  limit,
	})
}

// Approved lists items a reviewer has approved, with or without edits.
func (c *Coordinator) Approved(ctx context.Context, limit int) ([]*core.ExamItem, error) {
	approved, err := c.items.Query(ctx, storage.ItemQuery{
		Status: core.StatusApproved,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	edited, err := c.items.Query(ctx, storage.ItemQuery{
		Status: core.StatusApprovedWithEdits,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}

	items := append(approved, edited...)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
