// Package rubric holds the exam blueprint: the evidence-statement map that
// expands codes like "2.e" to their canonical text, and the rule set that is
// rendered into generation and scoring prompts.
//
// The default evidence map covers the contracts blueprint. Custom rule sets
// load from JSON via LoadRuleSet.
package rubric
