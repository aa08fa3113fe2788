package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/itemforge/ai"
)

// MockGenerator is a test double for ai.ItemGenerator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateItemFunc is called by GenerateItem if set.
	// If nil, uses default canned drafting behavior.
	GenerateItemFunc func(ctx context.Context, req *ai.GenerationRequest) (*ai.Draft, error)

	callCount int
}

// NewMockGenerator creates a mock generator with default canned behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateItem returns a canned, well-formed draft for the requested topic.
// The stimulus varies with the call count so successive drafts in one batch
// embed differently.
func (m *MockGenerator) GenerateItem(ctx context.Context, req *ai.GenerationRequest) (*ai.Draft, error) {
	m.callCount++

	if m.GenerateItemFunc != nil {
		return m.GenerateItemFunc(ctx, req)
	}

	return &ai.Draft{
		Topic:    req.Topic,
		Evidence: req.Evidence,
		Stimulus: fmt.Sprintf("Scenario %d: two parties negotiate the terms of an agreement covering %s.", m.callCount, req.Topic),
		Stem:     "Which statement best describes the parties' obligations?",
		Options: map[string]string{
			"A": "The obligation is enforceable as written.",
			"B": "The obligation is void for vagueness.",
			"C": "The obligation requires additional consideration.",
			"D": "The obligation binds only one party.",
		},
		CorrectAnswer: "A",
		Rationale:     "Option A is correct because the agreement satisfies the stated requirements. The remaining options misstate the governing rule.",
	}, nil
}

// CallCount returns the number of times GenerateItem was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateItemFunc = nil
}
