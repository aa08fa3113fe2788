package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
)

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) *ItemRepository {
	return &ItemRepository{
		backend: backend,
	}
}

// Close releases repository resources. The backend is closed separately.
func (r *ItemRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *ItemRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ItemMatch, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *ItemRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// UpsertItems writes one or more items by id, inserting or replacing.
// Status and topic index entries are kept in sync with the stored record.
func (r *ItemRepository) UpsertItems(ctx context.Context, items ...*core.ExamItem) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, item := range items {
			if item.Id == "" {
				return storage.ErrInvalidQuery
			}

			key := makeItemKey(item.Id)

			// Read the previous version to clean up index entries.
			old, err := r.readItem(tx, key)
			if err != nil {
				return err
			}

			if old != nil {
				item.CreatedAt = old.CreatedAt
				if old.Status != item.Status {
					if err := tx.Delete(makeStatusKey(old.Status, old.Id)); err != nil {
						return err
					}
				}
				if old.Topic != item.Topic {
					if err := tx.Delete(makeTopicKey(old.Topic, old.Id)); err != nil {
						return err
					}
				}
			} else if item.CreatedAt.IsZero() {
				item.CreatedAt = now
			}
			item.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalExamItem(item)); err != nil {
				return err
			}

			idBytes := []byte(item.Id)
			if err := tx.Set(makeStatusKey(item.Status, item.Id), idBytes); err != nil {
				return err
			}
			if err := tx.Set(makeTopicKey(item.Topic, item.Id), idBytes); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetItem retrieves a single item by id.
func (r *ItemRepository) GetItem(ctx context.Context, id string) (*core.ExamItem, error) {
	var result *core.ExamItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readItem(tx, makeItemKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// Query retrieves items matching the filter, ordered by id.
// A status or topic filter scans the corresponding secondary index;
// otherwise the primary records are scanned directly.
func (r *ItemRepository) Query(ctx context.Context, q storage.ItemQuery) ([]*core.ExamItem, error) {
	if q.Limit < 0 || q.Offset < 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ExamItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		matched := 0
		collect := func(item *core.ExamItem) bool {
			if q.Status != "" && item.Status != q.Status {
				return true
			}
			if q.Tier != "" && item.Tier != q.Tier {
				return true
			}
			if q.Topic != "" && item.Topic != q.Topic {
				return true
			}
			matched++
			if matched <= q.Offset {
				return true
			}
			results = append(results, item)
			return q.Limit == 0 || len(results) < q.Limit
		}

		switch {
		case q.Status != "":
			return r.scanIndex(tx, makePartialStatusKey(q.Status), collect)
		case q.Topic != "":
			return r.scanIndex(tx, makePartialTopicKey(q.Topic), collect)
		default:
			return r.scanItems(tx, collect)
		}
	}, false)

	return results, err
}

// CountByStatus returns the number of items per review status by scanning the
// status index keys, without loading the records.
func (r *ItemRepository) CountByStatus(ctx context.Context) (map[core.ReviewStatus]int, error) {
	counts := make(map[core.ReviewStatus]int)
	prefix := []byte(itemStatusPrefix + ":")

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			// Key format: prefix:status:id
			rest := key[len(prefix):]
			for i, b := range rest {
				if b == ':' {
					counts[core.ReviewStatus(rest[:i])]++
					break
				}
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return counts, nil
}

// scanItems walks the primary records in key order.
func (r *ItemRepository) scanItems(tx *badger.Txn, collect func(*core.ExamItem) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(itemPrefix + ":")
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var item *core.ExamItem
		err := iter.Item().Value(func(val []byte) error {
			var err error
			item, err = storage.UnmarshalExamItem(val)
			return err
		})
		if err != nil {
			return err
		}
		if item == nil {
			continue
		}
		if !collect(item) {
			return nil
		}
	}
	return nil
}

// scanIndex walks a secondary index prefix and loads the referenced records.
func (r *ItemRepository) scanIndex(tx *badger.Txn, prefix []byte, collect func(*core.ExamItem) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Seek(prefix); iter.Valid(); iter.Next() {
		var id string
		if err := iter.Item().Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		item, err := r.readItem(tx, makeItemKey(id))
		if err != nil {
			return err
		}
		if item == nil {
			continue
		}
		if !collect(item) {
			return nil
		}
	}
	return nil
}

// readItem reads and unmarshals an item, returning nil if the key is absent.
func (r *ItemRepository) readItem(tx *badger.Txn, key []byte) (*core.ExamItem, error) {
	entry, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var item *core.ExamItem
	err = entry.Value(func(val []byte) error {
		var err error
		item, err = storage.UnmarshalExamItem(val)
		return err
	})
	return item, err
}
