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
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced by the pipeline wraps exactly one of
// the four category sentinels so callers can classify with errors.Is.
var (
	// ErrUpstream indicates a generation, scoring, embedding or index call
	// failed or returned malformed data. Surfaced per item, never aborts a
	// batch.
	ErrUpstream = errors.New("upstream service failure")

	// ErrValidation indicates a deterministic in-repo validation failure.
	ErrValidation = errors.New("item validation failed")

	// ErrInvalidState indicates a review decision applied to a terminal or
	// nonexistent item. The item is left untouched.
	ErrInvalidState = errors.New("invalid review state")

	// ErrInvalidInput indicates a malformed review request.
	ErrInvalidInput = errors.New("invalid review input")
)

// Specific validation errors. Each wraps ErrValidation.
var (
	// ErrUnknownEvidenceCode indicates an evidence shorthand code with no
	// entry in the evidence map.
	ErrUnknownEvidenceCode = fmt.Errorf("%w: unknown evidence code", ErrValidation)

	// ErrBadOptions indicates the item does not have exactly four options
	// keyed A-D.
	ErrBadOptions = fmt.Errorf("%w: item must have exactly four options keyed A-D", ErrValidation)

	// ErrBadAnswerKey indicates the correct answer is not one of A-D.
	ErrBadAnswerKey = fmt.Errorf("%w: correct answer must be one of A-D", ErrValidation)

	// ErrBadAttempt indicates a generation attempt outside 1-3.
	ErrBadAttempt = fmt.Errorf("%w: generation attempt must be between 1 and 3", ErrValidation)

	// ErrMissingSnapshot indicates an edited item without a pre-edit snapshot.
	ErrMissingSnapshot = fmt.Errorf("%w: edited item must carry a pre-edit snapshot", ErrValidation)
)

// Specific review input errors. Each wraps ErrInvalidInput.
var (
	// ErrUnknownDecision indicates a decision value outside upvote/downvote.
	ErrUnknownDecision = fmt.Errorf("%w: decision must be upvote or downvote", ErrInvalidInput)

	// ErrExplanationRequired indicates a downvote without an explanation.
	ErrExplanationRequired = fmt.Errorf("%w: downvote requires an explanation", ErrInvalidInput)

	// ErrUneditableField indicates an edit targeting a field that reviewers
	// cannot change.
	ErrUneditableField = fmt.Errorf("%w: field is not editable", ErrInvalidInput)
)

// Upstreamf wraps err as an upstream service failure for the named operation.
func Upstreamf(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
