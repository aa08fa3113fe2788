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

package generation

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/retrieval"
)

const (
	// SimilarityThreshold is the maximum cosine similarity an accepted
	// scenario may have to any earlier scenario in the same batch.
	SimilarityThreshold = 0.75

	// MaxAttempts bounds the diversity retry loop. The third attempt is
	// accepted regardless of similarity.
	MaxAttempts = 3

	// scenarioEmbedChars truncates stimulus text before embedding it for
	// the similarity check.
	scenarioEmbedChars = 200

	// scenarioHintChars truncates prior stimulus text quoted in the
	// anti-repetition prompt section.
	scenarioHintChars = 150

	// scenarioHintCount caps how many prior scenarios the prompt quotes.
	scenarioHintCount = 3
)

// Pipeline is the diversity-gated generation loop: it drafts one item at a
// time, post-processes it, gates it on semantic similarity to earlier
// scenarios in the batch, and scores the accepted draft.
type Pipeline struct {
	generator ai.ItemGenerator
	scorer    ai.ItemScorer
	embedder  ai.Embedder
	post      *PostProcessor
	logger    *slog.Logger
}

// ItemFailure reports one failed slot of a best-effort batch.
type ItemFailure struct {
	// Index is the zero-based batch position that failed.
	Index int

	// Err is the failure, classified per the core error taxonomy.
	Err error
}

// BatchResult is the outcome of a best-effort batch generation.
type BatchResult struct {
	BatchId  string
	Items    []*core.ExamItem
	Failures []ItemFailure
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline) error

// WithPipelineLogger sets a custom logger.
// Default is slog.Default().
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a generation pipeline.
func NewPipeline(provider ai.Provider, post *PostProcessor, opts ...PipelineOption) (*Pipeline, error) {
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if post == nil {
		return nil, ErrPostProcessorRequired
	}

	p := &Pipeline{
		generator: provider.Generator(),
		scorer:    provider.Scorer(),
		embedder:  provider.Embedder(),
		post:      post,
		logger:    slog.Default().With("component", "generation-pipeline"),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// GenerateOne produces exactly one accepted item for the given context.
//
// acceptedScenarios holds the stimulus texts already accepted earlier in the
// current batch. The candidate is retried while its maximum similarity to any
// of them exceeds the threshold, up to MaxAttempts; the final attempt is
// accepted regardless, with the over-threshold similarity preserved in the
// generation trace.
func (p *Pipeline) GenerateOne(ctx context.Context, gc *retrieval.GenerationContext, acceptedScenarios []string, temperature float64) (*core.ExamItem, error) {
	priorVectors, err := p.embedScenarios(ctx, acceptedScenarios)
	if err != nil {
		return nil, err
	}

	req := &ai.GenerationRequest{
		Topic:             gc.Topic,
		Evidence:          gc.Evidence,
		TopicDefinition:   gc.TopicDefinition,
		RubricContext:     gc.RubricContext,
		Examples:          gc.Examples,
		ReferenceItems:    gc.ReferenceItems,
		PreviousScenarios: scenarioHints(acceptedScenarios),
		Temperature:       temperature,
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		draft, err := p.generator.GenerateItem(ctx, req)
		if err != nil {
			return nil, err
		}

		if err := p.post.Process(draft); err != nil {
			return nil, err
		}

		vector, err := p.embedder.EmbedText(ctx, truncate(draft.Stimulus, scenarioEmbedChars))
		if err != nil {
			p.logger.Error("failed to embed candidate scenario",
				"topic", gc.Topic,
				"attempt", attempt,
				"err", err)
			return nil, core.Upstreamf("embed scenario", err)
		}

		maxSimilarity := maxCosineSimilarity(vector, priorVectors)

		if maxSimilarity > SimilarityThreshold && attempt < MaxAttempts {
			p.logger.Info("scenario too similar, retrying",
				"topic", gc.Topic,
				"attempt", attempt,
				"similarity", maxSimilarity)
			continue
		}

		if maxSimilarity > SimilarityThreshold {
			p.logger.Warn("accepting over-threshold scenario on final attempt",
				"topic", gc.Topic,
				"similarity", maxSimilarity)
		}

		item := itemFromDraft(draft)
		item.GenerationAttempt = attempt
		item.SimilarityAtGeneration = maxSimilarity

		if err := p.scoreItem(ctx, gc, item); err != nil {
			return nil, err
		}

		p.logger.Debug("accepted item",
			"topic", gc.Topic,
			"attempt", attempt,
			"similarity", maxSimilarity,
			"overall", item.OverallScore,
			"tier", item.Tier)
		return item, nil
	}

	// Unreachable: the final attempt always accepts.
	panic("generation loop exited without accepting")
}

// GenerateBatch produces up to count items, best effort. A failed slot is
// reported in the result and does not halt the remaining slots.
func (p *Pipeline) GenerateBatch(ctx context.Context, gc *retrieval.GenerationContext, count int, temperature float64) (*BatchResult, error) {
	if count <= 0 {
		return nil, core.ErrInvalidInput
	}

	result := &BatchResult{BatchId: uuid.NewString()}
	var accepted []string

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		item, err := p.GenerateOne(ctx, gc, accepted, temperature)
		if err != nil {
			p.logger.Error("batch slot failed",
				"topic", gc.Topic,
				"slot", i,
				"err", err)
			result.Failures = append(result.Failures, ItemFailure{Index: i, Err: err})
			continue
		}

		item.BatchId = result.BatchId
		result.Items = append(result.Items, item)
		accepted = append(accepted, item.Stimulus)
	}

	p.logger.Info("batch complete",
		"batch", result.BatchId,
		"topic", gc.Topic,
		"requested", count,
		"generated", len(result.Items),
		"failed", len(result.Failures))
	return result, nil
}

// embedScenarios embeds the truncated prior scenarios for the similarity gate.
func (p *Pipeline) embedScenarios(ctx context.Context, scenarios []string) ([][]float32, error) {
	if len(scenarios) == 0 {
		return nil, nil
	}

	truncated := make([]string, len(scenarios))
	for i, s := range scenarios {
		truncated[i] = truncate(s, scenarioEmbedChars)
	}

	vectors, err := p.embedder.EmbedTexts(ctx, truncated)
	if err != nil {
		p.logger.Error("failed to embed prior scenarios", "count", len(scenarios), "err", err)
		return nil, core.Upstreamf("embed prior scenarios", err)
	}
	return vectors, nil
}

// scoreItem runs the scorer and folds the report into the item. Scorer
// failure aborts the item as an upstream failure.
func (p *Pipeline) scoreItem(ctx context.Context, gc *retrieval.GenerationContext, item *core.ExamItem) error {
	report, err := p.scorer.ScoreItem(ctx, &ai.ScoringRequest{
		Topic:         item.Topic,
		Evidence:      item.Evidence,
		RubricContext: gc.RubricContext,
		Item: &ai.Draft{
			Topic:         item.Topic,
			Evidence:      item.Evidence,
			Stimulus:      item.Stimulus,
			Stem:          item.Stem,
			Options:       item.Options,
			CorrectAnswer: item.CorrectAnswer,
			Rationale:     item.Rationale,
		},
	})
	if err != nil {
		return err
	}

	item.Scores = report.DimensionValues()
	item.OverallScore = report.Overall
	item.Tier = core.TierForScore(report.Overall)
	item.QualitySummary = report.Summary
	item.ScoredAt = time.Now().UTC()
	return nil
}

// itemFromDraft builds a new ExamItem from an accepted draft.
func itemFromDraft(draft *ai.Draft) *core.ExamItem {
	return &core.ExamItem{
		Id:            uuid.NewString(),
		Topic:         draft.Topic,
		Evidence:      draft.Evidence,
		Stimulus:      draft.Stimulus,
		Stem:          draft.Stem,
		Options:       draft.Options,
		CorrectAnswer: draft.CorrectAnswer,
		Rationale:     draft.Rationale,
	}
}

// scenarioHints quotes the most recent prior scenarios, most recent first,
// truncated for token efficiency.
func scenarioHints(scenarios []string) []string {
	var hints []string
	for i := len(scenarios) - 1; i >= 0 && len(hints) < scenarioHintCount; i-- {
		s := scenarios[i]
		if s == "" {
			continue
		}
		hint := truncate(s, scenarioHintChars)
		if len(s) > scenarioHintChars {
			hint += "..."
		}
		hints = append(hints, hint)
	}
	return hints
}

// maxCosineSimilarity returns the maximum cosine similarity between the
// candidate vector and any prior vector. No priors means zero.
func maxCosineSimilarity(candidate []float32, priors [][]float32) float32 {
	var max float32
	for _, prior := range priors {
		if sim := core.CosineSimilarity(candidate, prior); sim > max {
			max = sim
		}
	}
	return max
}

// truncate returns at most n bytes of s, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
