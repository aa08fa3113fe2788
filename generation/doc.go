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

// Package generation implements the diversity-gated generation loop and the
// batch upload that seeds review.
//
// The Pipeline drafts one item at a time against retrieved context,
// post-processes it (evidence expansion, answer shuffling), and gates it on
// semantic similarity to scenarios already accepted in the same batch: a
// candidate above the threshold is discarded and redrafted, up to three
// attempts, with the final attempt accepted regardless. Every accepted item
// carries its generation trace (attempt number, similarity at acceptance).
//
// The Uploader persists a batch's passing items into the index as
// pending_review and records a checkpoint so the review flow can pick the
// batch up later.
package generation
