package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// scoringTemperature keeps the scorer near-deterministic so repeated runs
// produce comparable scores.
const scoringTemperature = 0.2

// Scorer implements ai.ItemScorer using OpenAI-compatible chat APIs.
type Scorer struct {
	client llms.Model
	logger *slog.Logger
}

// newScorer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newScorer(config *ai.Config) (*Scorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.ScoringModel),
	)
	if err != nil {
		return nil, err
	}

	return &Scorer{
		client: client,
		logger: slog.Default().With("component", "openai-scorer"),
	}, nil
}

// NewScorer creates a new item scorer using the provided configuration.
//
// Returns ai.ItemScorer interface to enforce abstraction.
func NewScorer(config *ai.Config) (ai.ItemScorer, error) {
	return newScorer(config)
}

// ScoreItem assesses a drafted item against the rubric dimensions.
// Malformed model output is retried up to 3 times before giving up.
func (s *Scorer) ScoreItem(ctx context.Context, req *ai.ScoringRequest) (*ai.ScoreReport, error) {
	itemJSON, err := json.MarshalIndent(req.Item, "", "  ")
	if err != nil {
		return nil, err
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildScoringPrompt(req, string(itemJSON))),
			},
		},
	}

	var report ai.ScoreReport
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := s.client.GenerateContent(ctx, content,
			llms.WithTemperature(scoringTemperature),
			llms.WithJSONMode())
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, core.Upstreamf("score item", err)
		}

		if len(response.Choices) < 1 {
			s.logger.Debug("no choices returned from model")
			return nil, core.Upstreamf("score item", fmt.Errorf("empty response"))
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		report = ai.ScoreReport{}
		if err := json.Unmarshal([]byte(responseText), &report); err != nil {
			lastErr = err
			s.logger.Warn("error parsing scorer response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		if len(report.Scores) == 0 {
			lastErr = fmt.Errorf("report contains no dimension scores")
			s.logger.Warn("scorer returned empty report", "attempt", attempt+1)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		s.logger.Error("failed to parse scorer response after retries", "err", lastErr)
		return nil, core.Upstreamf("score item", lastErr)
	}

	// Some models omit the overall score. Fall back to the dimension mean.
	if report.Overall == 0 {
		var sum float64
		for _, ds := range report.Scores {
			sum += ds.Score
		}
		report.Overall = sum / float64(len(report.Scores))
	}

	s.logger.Debug("scored item",
		"topic", req.Topic,
		"overall", report.Overall,
		"dimensions", len(report.Scores))
	return &report, nil
}
