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

package itemforge

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/ai/openai"
	"github.com/poiesic/itemforge/analytics"
	"github.com/poiesic/itemforge/generation"
	"github.com/poiesic/itemforge/reindex"
	"github.com/poiesic/itemforge/retrieval"
	"github.com/poiesic/itemforge/review"
	"github.com/poiesic/itemforge/rubric"
	"github.com/poiesic/itemforge/storage"
	"github.com/poiesic/itemforge/storage/badger"
)

// Database bundles the item index, batch checkpoints, AI provider and rubric
// behind one handle, with factory methods for the pipeline stages.
type Database struct {
	backend        *badger.Backend
	itemRepo       storage.ItemRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.Provider
	rules          *rubric.RuleSet
	evidence       rubric.EvidenceMap
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig  *ai.Config
	provider  ai.Provider
	rulesPath string
	evidence  rubric.EvidenceMap
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a pre-built AI provider instead of constructing the
// OpenAI-backed one. Useful for offline runs and testing.
func WithAIProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithRulesPath sets the path of the JSON rubric rule set to load. Without
// it the database starts with an empty rubric.
func WithRulesPath(path string) DatabaseOption {
	return func(o *databaseOptions) {
		o.rulesPath = path
	}
}

// WithEvidenceMap overrides the built-in evidence code lookup table.
func WithEvidenceMap(evidence rubric.EvidenceMap) DatabaseOption {
	return func(o *databaseOptions) {
		o.evidence = evidence
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		evidence: rubric.DefaultEvidenceMap(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	itemRepo := badger.NewItemRepository(backend)
	checkpointRepo := badger.NewCheckpointRepository(backend)

	rules := &rubric.RuleSet{
		Rules:  map[string][]rubric.Rule{},
		Topics: map[string]string{},
	}
	if options.rulesPath != "" {
		rules, err = rubric.LoadRuleSet(options.rulesPath)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:        backend,
		itemRepo:       itemRepo,
		checkpointRepo: checkpointRepo,
		provider:       provider,
		rules:          rules,
		evidence:       options.evidence,
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.itemRepo.Close(); err != nil {
		db.logger.Error("error closing item repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ItemRepository() storage.ItemRepository {
	return db.itemRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

func (db *Database) RuleSet() *rubric.RuleSet {
	return db.rules
}

func (db *Database) EvidenceMap() rubric.EvidenceMap {
	return db.evidence
}

func (db *Database) NewRetriever(opts ...retrieval.Option) (*retrieval.Retriever, error) {
	return retrieval.NewRetriever(db.itemRepo, db.rules, db.evidence, db.provider, opts...)
}

func (db *Database) NewPipeline(opts ...generation.PipelineOption) (*generation.Pipeline, error) {
	post, err := generation.NewPostProcessor(db.evidence)
	if err != nil {
		return nil, err
	}
	return generation.NewPipeline(db.provider, post, opts...)
}

func (db *Database) NewUploader(opts ...generation.UploaderOption) (*generation.Uploader, error) {
	return generation.NewUploader(db.itemRepo, db.checkpointRepo, db.provider, opts...)
}

func (db *Database) NewReviewCoordinator(opts ...review.Option) (*review.Coordinator, error) {
	return review.NewCoordinator(db.itemRepo, db.checkpointRepo, opts...)
}

func (db *Database) NewReindexer(config *reindex.Config, progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(db.itemRepo, db.provider.Embedder(), config, progress)
}

// Analytics computes the review analytics report over every stored item.
func (db *Database) Analytics(ctx context.Context) (*analytics.Report, error) {
	return analytics.FromRepository(ctx, db.itemRepo)
}
