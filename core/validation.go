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

package core

import (
	"fmt"
	"slices"
)

// ValidateOptions checks that options holds exactly four entries keyed A-D
// and that correct names one of them.
func ValidateOptions(options map[string]string, correct string) error {
	if len(options) != len(OptionKeys) {
		return fmt.Errorf("%w: got %d", ErrBadOptions, len(options))
	}
	for _, key := range OptionKeys {
		if _, ok := options[key]; !ok {
			return fmt.Errorf("%w: missing %q", ErrBadOptions, key)
		}
	}
	if !slices.Contains(OptionKeys, correct) {
		return fmt.Errorf("%w: got %q", ErrBadAnswerKey, correct)
	}
	return nil
}

// ValidateExamItem validates an ExamItem according to domain rules.
//
// Validation rules:
//   - exactly four options keyed A-D, correct answer among them
//   - generation attempt in 1-3
//   - WasEdited implies a non-nil pre-edit snapshot
//
// NOT validated (populated later in the pipeline):
//   - Vector (empty until the item is embedded for upload)
//   - Scores / Tier (empty until the scoring stage runs)
func ValidateExamItem(item *ExamItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrValidation)
	}
	if err := ValidateOptions(item.Options, item.CorrectAnswer); err != nil {
		return err
	}
	if item.GenerationAttempt < 1 || item.GenerationAttempt > 3 {
		return fmt.Errorf("%w: got %d", ErrBadAttempt, item.GenerationAttempt)
	}
	if item.WasEdited && item.OriginalVersion == nil {
		return ErrMissingSnapshot
	}
	return nil
}

// ValidateDecision checks that a review decision value is recognized.
func ValidateDecision(decision ReviewDecision) error {
	switch decision {
	case DecisionUpvote, DecisionDownvote:
		return nil
	}
	return fmt.Errorf("%w: got %q", ErrUnknownDecision, decision)
}
