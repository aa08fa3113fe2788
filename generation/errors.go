package generation

import "errors"

var (
	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEvidenceMapRequired is returned when an evidence map is not provided.
	ErrEvidenceMapRequired = errors.New("evidence map required")

	// ErrPostProcessorRequired is returned when a post-processor is not provided.
	ErrPostProcessorRequired = errors.New("post-processor required")

	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")
)
