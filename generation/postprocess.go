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
	"math/rand/v2"

	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/rubric"
)

// PostProcessor applies the deterministic fixes every draft goes through
// before the diversity check: evidence-code expansion and answer shuffling.
//
// Shuffling in post-processing is more reliable than instructing the model to
// place the key at a specific position: it always works, costs no prompt
// tokens, and keeps the long-run answer distribution uniform.
type PostProcessor struct {
	evidence rubric.EvidenceMap
	perm     func(n int) []int
}

// PostProcessorOption configures a PostProcessor.
type PostProcessorOption func(*PostProcessor)

// WithPerm replaces the permutation source used for answer shuffling.
// Tests inject a fixed permutation here.
func WithPerm(perm func(n int) []int) PostProcessorOption {
	return func(p *PostProcessor) {
		p.perm = perm
	}
}

// NewPostProcessor creates a post-processor over the given evidence map.
func NewPostProcessor(evidence rubric.EvidenceMap, opts ...PostProcessorOption) (*PostProcessor, error) {
	if evidence == nil {
		return nil, ErrEvidenceMapRequired
	}

	p := &PostProcessor{
		evidence: evidence,
		perm:     rand.Perm,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process expands the draft's evidence references and shuffles its options.
func (p *PostProcessor) Process(draft *ai.Draft) error {
	if err := p.ExpandEvidence(draft); err != nil {
		return err
	}
	return p.ShuffleOptions(draft)
}

// ExpandEvidence rewrites each evidence reference to its full canonical
// "code: text" form. An unrecognized bare code is a validation error.
func (p *PostProcessor) ExpandEvidence(draft *ai.Draft) error {
	expanded, err := p.evidence.ExpandAll(draft.Evidence)
	if err != nil {
		return err
	}
	draft.Evidence = expanded
	return nil
}

// ShuffleOptions moves the four options into a uniformly random permutation
// of positions A-D, updating the correct-answer key to track the moved key.
func (p *PostProcessor) ShuffleOptions(draft *ai.Draft) error {
	if err := core.ValidateOptions(draft.Options, draft.CorrectAnswer); err != nil {
		return err
	}

	positions := p.perm(len(core.OptionKeys))

	shuffled := make(map[string]string, len(core.OptionKeys))
	for i, key := range core.OptionKeys {
		shuffled[core.OptionKeys[positions[i]]] = draft.Options[key]
	}

	for i, key := range core.OptionKeys {
		if key == draft.CorrectAnswer {
			draft.CorrectAnswer = core.OptionKeys[positions[i]]
			break
		}
	}
	draft.Options = shuffled
	return nil
}
