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

package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
)

// CheckpointRepository implements storage.CheckpointRepository for BadgerDB.
type CheckpointRepository struct {
	backend *Backend
}

var _ storage.CheckpointRepository = (*CheckpointRepository)(nil)

// NewCheckpointRepository creates a new CheckpointRepository.
func NewCheckpointRepository(backend *Backend) *CheckpointRepository {
	return &CheckpointRepository{
		backend: backend,
	}
}

// SaveCheckpoint persists a checkpoint for a generation batch.
func (r *CheckpointRepository) SaveCheckpoint(ctx context.Context, cp *core.BatchCheckpoint) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		cp.UpdatedAt = time.Now().UTC()
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = cp.UpdatedAt
		}
		key := makeCheckpointKey(cp.BatchId)
		if err := tx.Set(key, storage.MarshalBatchCheckpoint(cp)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadCheckpoint retrieves the checkpoint for a generation batch.
// Returns storage.ErrNotFound if no checkpoint exists.
func (r *CheckpointRepository) LoadCheckpoint(ctx context.Context, batchID string) (*core.BatchCheckpoint, error) {
	var cp *core.BatchCheckpoint
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := tx.Get(makeCheckpointKey(batchID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return entry.Value(func(val []byte) error {
			var unmarshalErr error
			cp, unmarshalErr = storage.UnmarshalBatchCheckpoint(val)
			return unmarshalErr
		})
	}, false)

	return cp, err
}

// DeleteCheckpoint removes the checkpoint for a generation batch.
// Deleting a missing checkpoint is not an error.
func (r *CheckpointRepository) DeleteCheckpoint(ctx context.Context, batchID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCheckpointKey(batchID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
