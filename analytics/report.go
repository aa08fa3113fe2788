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

package analytics

import (
	"context"

	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
)

// RejectionPattern pairs a rejected item's explanation with the generation
// signals that may correlate with rejection. Raw listing only, no modeling.
type RejectionPattern struct {
	ItemId      string
	Explanation string
	Tier        core.QualityTier
	Similarity  float32
}

// Report is a read-side aggregation over a population of exam items. Rates
// are nil rather than zero when their denominator is empty, so callers can
// tell "no data" from "zero percent".
type Report struct {
	TotalItems    int
	TotalReviewed int

	StatusCounts map[core.ReviewStatus]int

	// ApprovalRate is (approved + approved_with_edits) over all reviewed
	// items. Pending and gold-standard items are excluded from the
	// denominator.
	ApprovalRate *float64

	// EditRate is approved_with_edits over all approved items.
	EditRate *float64

	AvgQualityByStatus map[core.ReviewStatus]float64

	RejectionPatterns []RejectionPattern
}

// Compute aggregates a report over the given items. It never mutates them.
func Compute(items []*core.ExamItem) *Report {
	report := &Report{
		TotalItems:         len(items),
		StatusCounts:       make(map[core.ReviewStatus]int),
		AvgQualityByStatus: make(map[core.ReviewStatus]float64),
	}

	scoreSums := make(map[core.ReviewStatus]float64)
	for _, item := range items {
		report.StatusCounts[item.Status]++
		scoreSums[item.Status] += item.OverallScore

		if item.Status == core.StatusRejected {
			report.RejectionPatterns = append(report.RejectionPatterns, RejectionPattern{
				ItemId:      item.Id,
				Explanation: item.ReviewExplanation,
				Tier:        item.Tier,
				Similarity:  item.SimilarityAtGeneration,
			})
		}
	}

	for status, sum := range scoreSums {
		report.AvgQualityByStatus[status] = sum / float64(report.StatusCounts[status])
	}

	approved := report.StatusCounts[core.StatusApproved] +
		report.StatusCounts[core.StatusApprovedWithEdits]
	reviewed := approved + report.StatusCounts[core.StatusRejected]
	report.TotalReviewed = reviewed

	if reviewed > 0 {
		rate := float64(approved) / float64(reviewed)
		report.ApprovalRate = &rate
	}
	if approved > 0 {
		rate := float64(report.StatusCounts[core.StatusApprovedWithEdits]) / float64(approved)
		report.EditRate = &rate
	}

	return report
}

// FromRepository loads every stored item and computes a report over them.
func FromRepository(ctx context.Context, items storage.ItemRepository) (*Report, error) {
	stored, err := items.Query(ctx, storage.ItemQuery{})
	if err != nil {
		return nil, err
	}
	return Compute(stored), nil
}
