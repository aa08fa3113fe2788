package rubric

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ruleSetJSON = `{
  "rules": {
    "ITEM_WRITING": [
      {"category": "ITEM_WRITING", "subsection": "stems", "type": "DO", "content": "Write stems as complete questions."},
      {"category": "ITEM_WRITING", "subsection": "stems", "type": "DONT", "content": "Do not use negative stems."},
      {"category": "ITEM_WRITING", "subsection": "stems", "type": "DEFINITION", "content": "The stem is the question portion of the item."}
    ],
    "STIMULUS": [
      {"category": "STIMULUS", "subsection": "length", "type": "GUIDELINE", "content": "Keep stimuli under 150 words."}
    ],
    "EXAMPLE": [
      {"category": "EXAMPLE", "subsection": "samples", "type": "NOTE", "content": "Example items are not rules."}
    ],
    "BEFORE_AFTER": [
      {"category": "BEFORE_AFTER", "subsection": "stems", "type": "BEFORE_AFTER", "content": "Before: vague stem. After: direct question."}
    ]
  },
  "topics": {
    "2": "Consideration: the bargained-for exchange that makes promises enforceable."
  }
}`

func TestReadRuleSet(t *testing.T) {
	rs, err := ReadRuleSet(strings.NewReader(ruleSetJSON))
	require.NoError(t, err)

	assert.Len(t, rs.Rules["ITEM_WRITING"], 3)
	assert.Len(t, rs.Rules["STIMULUS"], 1)

	_, err = ReadRuleSet(strings.NewReader("{not json"))
	assert.Error(t, err)

	rs, err = ReadRuleSet(strings.NewReader("{}"))
	require.NoError(t, err)
	assert.NotNil(t, rs.Rules)
	assert.NotNil(t, rs.Topics)
}

func TestRuleSetTopicDefinition(t *testing.T) {
	rs, err := ReadRuleSet(strings.NewReader(ruleSetJSON))
	require.NoError(t, err)

	assert.Contains(t, rs.TopicDefinition("TP.2"), "bargained-for exchange")
	assert.Contains(t, rs.TopicDefinition("2"), "bargained-for exchange")
	assert.Empty(t, rs.TopicDefinition("TP.9"))
}

func TestRuleSetFormatForPrompt(t *testing.T) {
	rs, err := ReadRuleSet(strings.NewReader(ruleSetJSON))
	require.NoError(t, err)

	prompt := rs.FormatForPrompt()

	assert.Contains(t, prompt, "=== ITEM WRITING RULES ===")
	assert.Contains(t, prompt, "=== STIMULUS RULES ===")
	assert.Contains(t, prompt, "+ Write stems as complete questions.")
	assert.Contains(t, prompt, "x Do not use negative stems.")
	assert.Contains(t, prompt, "- The stem is the question portion of the item.")

	// Example categories are retrieval material, not mandatory rules.
	assert.NotContains(t, prompt, "Example items are not rules.")

	// Writing rules come before stimulus rules.
	assert.Less(t,
		strings.Index(prompt, "ITEM WRITING RULES"),
		strings.Index(prompt, "STIMULUS RULES"))
}

func TestRuleSetExampleRules(t *testing.T) {
	rs, err := ReadRuleSet(strings.NewReader(ruleSetJSON))
	require.NoError(t, err)

	examples := rs.ExampleRules()
	require.Len(t, examples, 2)
	assert.Equal(t, "EXAMPLE", examples[0].Category)
	assert.Equal(t, "BEFORE_AFTER", examples[1].Category)

	empty := &RuleSet{Rules: map[string][]Rule{}, Topics: map[string]string{}}
	assert.Empty(t, empty.ExampleRules())
}
