package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/itemforge/ai"
)

func TestBuildGenerationUserPrompt(t *testing.T) {
	base := &ai.GenerationRequest{
		Topic:    "TP.2",
		Evidence: []string{"2.e: Understand the concept of adequacy of consideration"},
	}

	t.Run("includes target", func(t *testing.T) {
		prompt := buildGenerationUserPrompt(base)

		assert.Contains(t, prompt, "TP.2")
		assert.Contains(t, prompt, "adequacy of consideration")
	})

	t.Run("no diversity section without prior scenarios", func(t *testing.T) {
		prompt := buildGenerationUserPrompt(base)

		assert.NotContains(t, prompt, "SCENARIO DIVERSITY REQUIREMENT")
	})

	t.Run("diversity section lists prior scenarios", func(t *testing.T) {
		req := *base
		req.PreviousScenarios = []string{
			"A landscaper agrees to maintain a garden",
			"A tenant negotiates a lease renewal",
		}
		prompt := buildGenerationUserPrompt(&req)

		assert.Contains(t, prompt, "SCENARIO DIVERSITY REQUIREMENT")
		assert.Contains(t, prompt, "- A landscaper agrees to maintain a garden")
		assert.Contains(t, prompt, "- A tenant negotiates a lease renewal")
	})

	t.Run("includes retrieved rubric examples", func(t *testing.T) {
		req := *base
		req.Examples = "[EXAMPLE | 2.e]\nA neighbor promises to water plants for twenty dollars."
		prompt := buildGenerationUserPrompt(&req)

		assert.Contains(t, prompt, "RELEVANT EXAMPLES")
		assert.Contains(t, prompt, "[EXAMPLE | 2.e]")
		assert.Contains(t, prompt, "water plants for twenty dollars")
		assert.NotContains(t, prompt, "No specific examples retrieved.")
	})

	t.Run("placeholders when retrieval is empty", func(t *testing.T) {
		prompt := buildGenerationUserPrompt(base)

		assert.Contains(t, prompt, "No specific examples retrieved.")
		assert.Contains(t, prompt, "No reference items available.")
	})
}

func TestBuildScoringPrompt(t *testing.T) {
	req := &ai.ScoringRequest{
		Topic:         "TP.2",
		Evidence:      []string{"2.e: Understand the concept of adequacy of consideration"},
		RubricContext: "Stems must be complete questions.",
	}
	prompt := buildScoringPrompt(req, `{"stem": "What?"}`)

	assert.Contains(t, prompt, "Stems must be complete questions.")
	assert.Contains(t, prompt, `{"stem": "What?"}`)
	for _, dim := range ai.ScoreDimensions {
		assert.True(t, strings.Contains(prompt, dim), "prompt should list dimension %q", dim)
	}
}
