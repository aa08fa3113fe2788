package badger

import "github.com/poiesic/itemforge/storage"

// Repository combines item and checkpoint storage over one BadgerDB backend.
type Repository struct {
	*ItemRepository
	*CheckpointRepository
	backend *Backend
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository opens a combined repository at the given path.
//
// Returns storage.Repository interface to enforce abstraction.
func NewRepository(path string) (storage.Repository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newRepository(backend), nil
}

// NewMemoryRepository creates a combined in-memory repository for testing.
func NewMemoryRepository() (storage.Repository, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return newRepository(backend), nil
}

func newRepository(backend *Backend) *Repository {
	return &Repository{
		ItemRepository:       NewItemRepository(backend),
		CheckpointRepository: NewCheckpointRepository(backend),
		backend:              backend,
	}
}

// Close closes the underlying backend.
func (r *Repository) Close() error {
	return r.backend.Close()
}
