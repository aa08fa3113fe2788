package storage

import (
	"context"

	"github.com/poiesic/itemforge/core"
)

// ItemQuery filters and pages item listings. Zero-value fields are ignored.
type ItemQuery struct {
	// Status filters by review status.
	Status core.ReviewStatus

	// Tier filters by quality tier.
	Tier core.QualityTier

	// Topic filters by topic code.
	Topic string

	// Limit caps the number of returned items. Zero means no cap.
	Limit int

	// Offset skips the first N matching items.
	Offset int
}

// ItemRepository provides operations for managing exam items.
// Implementations must be thread-safe and support concurrent access.
type ItemRepository interface {
	// UpsertItems writes one or more items by id, inserting or replacing.
	// Sets CreatedAt on insert and UpdatedAt on every write.
	UpsertItems(ctx context.Context, items ...*core.ExamItem) error

	// GetItem retrieves a single item by id.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id string) (*core.ExamItem, error)

	// Query retrieves items matching the filter, ordered by id.
	Query(ctx context.Context, q ItemQuery) ([]*core.ExamItem, error)

	// CountByStatus returns the number of items per review status.
	CountByStatus(ctx context.Context) (map[core.ReviewStatus]int, error)

	// FindSimilar finds items whose stored vectors are similar to the given
	// vector. Returns items with similarity >= minSimilarity, up to limit
	// results, ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ItemMatch, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CheckpointRepository persists the suspended-workflow record that hands a
// generated batch over to review.
type CheckpointRepository interface {
	// SaveCheckpoint writes a batch checkpoint by batch id.
	SaveCheckpoint(ctx context.Context, cp *core.BatchCheckpoint) error

	// LoadCheckpoint retrieves a checkpoint by batch id.
	// Returns ErrNotFound if no checkpoint exists for the batch.
	LoadCheckpoint(ctx context.Context, batchID string) (*core.BatchCheckpoint, error)

	// DeleteCheckpoint removes a checkpoint by batch id.
	// Deleting a missing checkpoint is not an error.
	DeleteCheckpoint(ctx context.Context, batchID string) error
}

// Repository combines item and checkpoint storage over one backend.
type Repository interface {
	ItemRepository
	CheckpointRepository
}
