// Package review implements the human review workflow for generated exam
// items: applying upvote and downvote decisions, tracking reviewer edits with
// a pre-edit snapshot, and advancing batch checkpoints as decisions land.
package review
