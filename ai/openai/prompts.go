package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/itemforge/ai"
)

const generationSystemTemplate = `You are an expert psychometrician creating high-quality multiple-choice exam items.

Your job is to create a new, psychometrically defensible multiple-choice exam item
that aligns to the specified topic and evidence statements.

CRITICAL: You MUST follow ALL rubric rules below. These are non-negotiable requirements.

%s

=== GENERATION PROCESS ===
Before outputting, you MUST mentally verify:
1. Stimulus is clear, accessible, and provides enough context for reasoning
2. Stem asks a clear, direct question
3. Exactly ONE answer is unambiguously correct (the "key")
4. All three distractors are plausible but definitively wrong
5. Difficulty comes from the targeted reasoning, not from language
6. Item aligns precisely to the topic and evidence statements
7. Language is plain, fair, and accessible to all test takers
8. No inappropriate content (violence, controversy, stereotypes, dated references)
9. Options are parallel in structure and length
10. Rationale explains why the key is correct AND why each distractor is wrong

=== OUTPUT FORMAT ===
Return the item in this exact JSON structure:

{
  "stimulus": "...",
  "stem": "...",
  "options": {
    "A": "...",
    "B": "...",
    "C": "...",
    "D": "..."
  },
  "correct_answer": "A|B|C|D",
  "rationale": "...",
  "topic": "%s",
  "evidence_statements": [...]
}

IMPORTANT RULES:
- evidence_statements MUST include the FULL text, e.g. "2.e: Understand the concept of adequacy..." NOT just "2.e"
- Do not include any extra keys.
- Do not wrap the JSON in Markdown code blocks.`

const diversityTemplate = `
=== SCENARIO DIVERSITY REQUIREMENT ===
The following scenarios have ALREADY been used. You MUST create a DIFFERENT scenario:
%s

Use a completely different setting, relationship type, and subject matter.`

const scoringTemplate = `You are a psychometric quality scorer. Score the following exam item against rubric dimensions.

=== RUBRIC RULES ===
%s

=== ITEM TO SCORE ===
%s

=== TARGET ===
Topic: %s
Evidence: %s

=== SCORING INSTRUCTIONS ===
Score each of these dimensions from 0-5: %s.
- 5 = Excellent, exemplary quality, no issues
- 4 = Good, minor improvements possible
- 3 = Acceptable, some issues but usable
- 2 = Below standard, significant issues
- 1 = Poor, major violations, needs rewrite

For each dimension, provide a numeric score, a brief justification, and any
specific violations found.

=== OUTPUT FORMAT (JSON only) ===
{
  "scores": {
    "<dimension>": {"score": <0-5>, "justification": "...", "issues": []}
  },
  "overall_score": <weighted average 0-5>,
  "summary": "Brief overall assessment",
  "improvement_suggestions": []
}

"scores" must contain exactly one entry per listed dimension.
Output only valid JSON. No markdown code blocks.`

// buildGenerationSystemPrompt creates the drafting system prompt with the full
// rubric context embedded.
func buildGenerationSystemPrompt(req *ai.GenerationRequest) string {
	return fmt.Sprintf(generationSystemTemplate, req.RubricContext, req.Topic)
}

// buildGenerationUserPrompt creates the drafting user message with the target,
// diversity hints and retrieved reference material.
func buildGenerationUserPrompt(req *ai.GenerationRequest) string {
	var sb strings.Builder
	sb.WriteString("Generate a new exam item.\n\n")
	sb.WriteString("=== TARGET ===\n")
	sb.WriteString("Topic code: " + req.Topic + "\n")
	if req.TopicDefinition != "" {
		sb.WriteString("Topic Definition: " + req.TopicDefinition + "\n")
	}
	sb.WriteString("Evidence statements: " + strings.Join(req.Evidence, ", ") + "\n")

	if len(req.PreviousScenarios) > 0 {
		var lines []string
		for _, s := range req.PreviousScenarios {
			lines = append(lines, "- "+s)
		}
		sb.WriteString(fmt.Sprintf(diversityTemplate, strings.Join(lines, "\n")))
		sb.WriteString("\n")
	}

	sb.WriteString("\n=== RELEVANT EXAMPLES (for pattern reference only) ===\n")
	if req.Examples != "" {
		sb.WriteString(req.Examples + "\n")
	} else {
		sb.WriteString("No specific examples retrieved.\n")
	}

	sb.WriteString("\n=== HIGH-QUALITY REFERENCE ITEMS (for style reference only - do NOT copy) ===\n")
	if req.ReferenceItems != "" {
		sb.WriteString(req.ReferenceItems + "\n")
	} else {
		sb.WriteString("No reference items available.\n")
	}

	sb.WriteString("\n=== INSTRUCTIONS ===\n")
	sb.WriteString("Generate ONE new item that fits the topic and evidence statements precisely,\n")
	sb.WriteString("follows ALL rubric rules, and is NOT a copy or trivial variation of any\n")
	sb.WriteString("reference item. Output only the JSON. No explanations before or after.")
	return sb.String()
}

// buildScoringPrompt creates the scoring prompt for a drafted item.
func buildScoringPrompt(req *ai.ScoringRequest, itemJSON string) string {
	return fmt.Sprintf(scoringTemplate,
		req.RubricContext,
		itemJSON,
		req.Topic,
		strings.Join(req.Evidence, ", "),
		strings.Join(ai.ScoreDimensions, ", "))
}
