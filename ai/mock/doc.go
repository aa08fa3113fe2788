// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.ItemGenerator, ai.ItemScorer,
// ai.Embedder, and ai.Provider for use in unit tests. The mocks allow tests to
// run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	draft, err := mockProvider.Generator().GenerateItem(ctx, req)
//
//	// Custom behavior injection
//	mockScorer := mock.NewMockScorer()
//	mockScorer.ScoreItemFunc = func(ctx context.Context, req *ai.ScoringRequest) (*ai.ScoreReport, error) {
//	    return nil, errors.New("scorer unavailable")
//	}
//
//	// Check call counts
//	count := mockScorer.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockGenerator: Returns a well-formed canned draft for the requested topic
//   - MockScorer: Assigns a fixed score to every rubric dimension
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockProvider: Aggregates the three mocks
package mock
