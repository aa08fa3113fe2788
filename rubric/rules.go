package rubric

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Rule categories that contain must-follow rules, in prompt order.
var mandatoryCategories = []struct {
	Key   string
	Title string
}{
	{"CONSTRUCT", "CONSTRUCT & VALIDITY RULES"},
	{"ANATOMY", "ITEM ANATOMY REQUIREMENTS"},
	{"ITEM_WRITING", "ITEM WRITING RULES"},
	{"LANGUAGE", "LANGUAGE RULES"},
	{"STIMULUS", "STIMULUS RULES"},
	{"ITEM_STYLE", "ITEM STYLE RULES"},
	{"ITEM_REVISION", "QUALITY ISSUES TO AVOID"},
}

// Rule categories holding worked examples and before/after rewrites. These
// are topic-specific and are retrieved by semantic search rather than
// included wholesale.
var exampleCategories = []string{"EXAMPLE", "BEFORE_AFTER"}

// Rule is one rubric rule chunk.
type Rule struct {
	Category   string `json:"category"`
	Subsection string `json:"subsection"`
	Type       string `json:"type"`
	Content    string `json:"content"`
}

// RuleSet holds the full rubric: rules grouped by category plus topic
// definitions keyed by topic code.
type RuleSet struct {
	Rules  map[string][]Rule `json:"rules"`
	Topics map[string]string `json:"topics"`
}

// LoadRuleSet reads a JSON rule set from the given path.
func LoadRuleSet(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rule set: %w", err)
	}
	defer f.Close()

	return ReadRuleSet(f)
}

// ReadRuleSet decodes a JSON rule set from r.
func ReadRuleSet(r io.Reader) (*RuleSet, error) {
	var rs RuleSet
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", err)
	}
	if rs.Rules == nil {
		rs.Rules = map[string][]Rule{}
	}
	if rs.Topics == nil {
		rs.Topics = map[string]string{}
	}
	return &rs, nil
}

// TopicDefinition returns the definition text for a topic code, or "" when
// the rubric has none. "TP.2" and "2" are equivalent.
func (rs *RuleSet) TopicDefinition(topic string) string {
	if def, ok := rs.Topics[topic]; ok {
		return def
	}
	return rs.Topics[TopicNumber(topic)]
}

// ExampleRules returns the rubric's worked-example chunks in category order.
// These are candidates for semantic ranking, not prompt-ready text.
func (rs *RuleSet) ExampleRules() []Rule {
	var out []Rule
	for _, cat := range exampleCategories {
		out = append(out, rs.Rules[cat]...)
	}
	return out
}

// FormatForPrompt renders the mandatory rule categories into a structured
// prompt section, grouping each category's rules by type.
func (rs *RuleSet) FormatForPrompt() string {
	var sections []string

	for _, cat := range mandatoryCategories {
		rules, ok := rs.Rules[cat.Key]
		if !ok || len(rules) == 0 {
			continue
		}

		lines := []string{"\n=== " + cat.Title + " ==="}

		definitions := filterByType(rules, "DEFINITION", "PRINCIPLE", "CLARIFICATION")
		components := filterByType(rules, "COMPONENT")
		dos := filterByType(rules, "DO", "GUIDELINE", "METHOD")
		donts := filterByType(rules, "DONT")
		notes := filterByType(rules, "NOTE", "ISSUE")

		if len(definitions) > 0 {
			lines = append(lines, "\nDefinitions & Principles:")
			for _, r := range definitions {
				lines = append(lines, "  - "+r.Content)
			}
		}
		if len(components) > 0 {
			lines = append(lines, "\nRequired Components:")
			for _, r := range components {
				lines = append(lines, "  - "+r.Content)
			}
		}
		if len(dos) > 0 {
			lines = append(lines, "\nDO:")
			for _, r := range dos {
				lines = append(lines, "  + "+r.Content)
			}
		}
		if len(donts) > 0 {
			lines = append(lines, "\nDO NOT:")
			for _, r := range donts {
				lines = append(lines, "  x "+r.Content)
			}
		}
		if len(notes) > 0 {
			lines = append(lines, "\nNotes & Warnings:")
			for _, r := range notes {
				lines = append(lines, "  ! "+r.Content)
			}
		}

		sections = append(sections, strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n")
}

func filterByType(rules []Rule, types ...string) []Rule {
	var out []Rule
	for _, r := range rules {
		for _, t := range types {
			if r.Type == t {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
