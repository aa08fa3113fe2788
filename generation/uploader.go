package generation

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/storage"
)

// tierRank orders tiers for upload gating, best first.
var tierRank = map[core.QualityTier]int{
	core.TierGold:          3,
	core.TierSilver:        2,
	core.TierBronze:        1,
	core.TierNeedsRevision: 0,
}

// Uploader persists a generated batch into the index: each passing item is
// embedded over its full content text, normalized, and upserted as
// pending_review. Upserts are independent point writes by id, so they run
// concurrently on a worker pool.
type Uploader struct {
	items       storage.ItemRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	pool        *ants.Pool
	minTier     core.QualityTier
	logger      *slog.Logger
}

// UploadResult reports the outcome of one batch upload.
type UploadResult struct {
	// Checkpoint is the persisted hand-off record for review.
	Checkpoint *core.BatchCheckpoint

	// Skipped lists item ids excluded by the tier gate.
	Skipped []string

	// Failures lists per-item upload errors.
	Failures []ItemFailure
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader) error

// WithUploadPoolSize sets the worker pool size for concurrent upserts.
// Default is the number of CPUs.
func WithUploadPoolSize(size int) UploaderOption {
	return func(u *Uploader) error {
		if size < 1 {
			size = 1
		}
		u.pool.Release()
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		u.pool = pool
		return nil
	}
}

// WithMinTier sets the lowest quality tier eligible for upload.
// Default is bronze; needs_revision items are never uploaded by default.
func WithMinTier(tier core.QualityTier) UploaderOption {
	return func(u *Uploader) error {
		u.minTier = tier
		return nil
	}
}

// WithUploaderLogger sets a custom logger.
// Default is slog.Default().
func WithUploaderLogger(logger *slog.Logger) UploaderOption {
	return func(u *Uploader) error {
		if logger == nil {
			logger = slog.Default()
		}
		u.logger = logger
		return nil
	}
}

// NewUploader creates an uploader.
func NewUploader(
	items storage.ItemRepository,
	checkpoints storage.CheckpointRepository,
	provider ai.Provider,
	opts ...UploaderOption,
) (*Uploader, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		return nil, err
	}

	u := &Uploader{
		items:       items,
		checkpoints: checkpoints,
		embedder:    provider.Embedder(),
		pool:        pool,
		minTier:     core.TierBronze,
		logger:      slog.Default().With("component", "uploader"),
	}

	for _, opt := range opts {
		if err := opt(u); err != nil {
			u.pool.Release()
			return nil, err
		}
	}

	return u, nil
}

// Release releases the worker pool.
// The uploader should not be used after calling Release.
func (u *Uploader) Release() {
	if u.pool != nil {
		u.pool.Release()
	}
}

// Upload writes the batch's passing items to the index with status
// pending_review and persists a batch checkpoint for the review hand-off.
// Item uploads are independent; one failure does not block the rest.
func (u *Uploader) Upload(ctx context.Context, topic string, batch *BatchResult) (*UploadResult, error) {
	result := &UploadResult{}

	var eligible []*core.ExamItem
	for _, item := range batch.Items {
		if tierRank[item.Tier] < tierRank[u.minTier] {
			u.logger.Info("skipping item below tier gate",
				"item", item.Id,
				"tier", item.Tier,
				"minTier", u.minTier)
			result.Skipped = append(result.Skipped, item.Id)
			continue
		}
		eligible = append(eligible, item)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		uploaded []string
	)

	for i, item := range eligible {
		i, item := i, item
		wg.Add(1)
		err := u.pool.Submit(func() {
			defer wg.Done()
			if err := u.uploadItem(ctx, item); err != nil {
				u.logger.Error("failed to upload item",
					"item", item.Id,
					"err", err)
				mu.Lock()
				result.Failures = append(result.Failures, ItemFailure{Index: i, Err: err})
				mu.Unlock()
				return
			}
			mu.Lock()
			uploaded = append(uploaded, item.Id)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			result.Failures = append(result.Failures, ItemFailure{Index: i, Err: err})
			mu.Unlock()
		}
	}
	wg.Wait()

	cp := &core.BatchCheckpoint{
		BatchId:        batch.BatchId,
		Topic:          topic,
		PendingItemIds: uploaded,
		UploadedCount:  len(uploaded),
		CreatedAt:      time.Now().UTC(),
	}
	if err := u.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		return result, err
	}
	result.Checkpoint = cp

	u.logger.Info("batch uploaded",
		"batch", batch.BatchId,
		"uploaded", len(uploaded),
		"skipped", len(result.Skipped),
		"failed", len(result.Failures))
	return result, nil
}

// uploadItem embeds the item's full content text and upserts it as
// pending_review.
func (u *Uploader) uploadItem(ctx context.Context, item *core.ExamItem) error {
	vector, err := u.embedder.EmbedText(ctx, item.ContentText())
	if err != nil {
		return core.Upstreamf("embed item content", err)
	}

	item.Vector = core.NormalizeVector(vector)
	item.Status = core.StatusPendingReview
	return u.items.UpsertItems(ctx, item)
}
