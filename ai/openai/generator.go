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

// Generator implements ai.ItemGenerator using OpenAI-compatible chat APIs.
type Generator struct {
	client llms.Model
	logger *slog.Logger
}

// newGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new item generator using the provided configuration.
//
// Returns ai.ItemGenerator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.ItemGenerator, error) {
	return newGenerator(config)
}

// GenerateItem drafts one multiple-choice item via the chat model.
// Malformed model output is retried up to 3 times before giving up.
func (g *Generator) GenerateItem(ctx context.Context, req *ai.GenerationRequest) (*ai.Draft, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildGenerationSystemPrompt(req)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildGenerationUserPrompt(req)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var draft ai.Draft
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := g.client.GenerateContent(ctx, content,
			llms.WithTemperature(req.Temperature),
			llms.WithJSONMode())
		if err != nil {
			g.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, core.Upstreamf("generate item", err)
		}

		if len(response.Choices) < 1 {
			g.logger.Debug("no choices returned from model")
			return nil, core.Upstreamf("generate item", fmt.Errorf("empty response"))
		}

		responseText := stripCodeFences(response.Choices[0].Content)
		responseText = repairJSON(responseText)

		draft = ai.Draft{}
		if err := json.Unmarshal([]byte(responseText), &draft); err != nil {
			lastErr = err
			g.logger.Warn("error parsing generator response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		if err := core.ValidateOptions(draft.Options, draft.CorrectAnswer); err != nil {
			lastErr = err
			g.logger.Warn("generated draft failed validation",
				"attempt", attempt+1,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		g.logger.Error("failed to obtain a valid draft after retries", "err", lastErr)
		return nil, core.Upstreamf("generate item", lastErr)
	}

	if draft.Topic == "" {
		draft.Topic = req.Topic
	}
	if len(draft.Evidence) == 0 {
		draft.Evidence = req.Evidence
	}

	g.logger.Debug("drafted item",
		"topic", draft.Topic,
		"correct", draft.CorrectAnswer)
	return &draft, nil
}
