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

package reindex

import (
	"context"

	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
)

const (
	// DefaultBatchSize is the default number of items fetched per page
	DefaultBatchSize = 100
)

// ItemIterator pages through every stored exam item in batches.
type ItemIterator struct {
	items     storage.ItemRepository
	batchSize int
}

// NewItemIterator creates an iterator over the whole item index.
// batchSize: number of items per page (must be > 0)
func NewItemIterator(items storage.ItemRepository, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ItemIterator{
		items:     items,
		batchSize: batchSize,
	}
}

// ForEach walks the index page by page, calling fn for each page of items.
// Iteration stops on the first error from fn or when the index is exhausted.
// Context cancellation is checked between pages.
func (it *ItemIterator) ForEach(ctx context.Context, fn func([]*core.ExamItem) error) error {
	for offset := 0; ; offset += it.batchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		page, err := it.items.Query(ctx, storage.ItemQuery{
			Limit:  it.batchSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		if err := fn(page); err != nil {
			return err
		}

		if len(page) < it.batchSize {
			return nil
		}
	}
}
