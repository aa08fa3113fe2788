package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ItemGenerator drafts a single multiple-choice exam item from a generation
// request. Implementations must fail distinguishably when the model returns a
// malformed or empty response.
type ItemGenerator interface {
	// GenerateItem produces one draft item for the request. The draft is raw
	// model output: answer options are still in the model's original order
	// and evidence statements may be shorthand codes.
	GenerateItem(ctx context.Context, req *GenerationRequest) (*Draft, error)
}

// ItemScorer scores a drafted item against the rubric dimensions.
type ItemScorer interface {
	// ScoreItem returns 0-5 scores for each scoring dimension plus a derived
	// overall score.
	ScoreItem(ctx context.Context, req *ScoringRequest) (*ScoreReport, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management. A provider creates and manages ItemGenerator,
// ItemScorer and Embedder instances, ensuring they share configuration.
type Provider interface {
	// Generator returns the item drafting service.
	Generator() ItemGenerator

	// Scorer returns the quality scoring service.
	Scorer() ItemScorer

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}
