package mock

import (
	"context"

	"github.com/poiesic/itemforge/ai"
)

// MockScorer is a test double for ai.ItemScorer.
// It allows custom behavior injection via function fields.
type MockScorer struct {
	// ScoreItemFunc is called by ScoreItem if set.
	// If nil, uses default fixed-score behavior.
	ScoreItemFunc func(ctx context.Context, req *ai.ScoringRequest) (*ai.ScoreReport, error)

	// FixedScore is the score assigned to every dimension by the default
	// behavior. Zero means 4.0.
	FixedScore float64

	callCount int
}

// NewMockScorer creates a mock scorer with default fixed-score behavior.
// Note: Returns concrete type to allow test assertions via GetMockScorer().
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// ScoreItem assigns the fixed score to every rubric dimension.
func (m *MockScorer) ScoreItem(ctx context.Context, req *ai.ScoringRequest) (*ai.ScoreReport, error) {
	m.callCount++

	if m.ScoreItemFunc != nil {
		return m.ScoreItemFunc(ctx, req)
	}

	score := m.FixedScore
	if score == 0 {
		score = 4.0
	}

	scores := make(map[string]ai.DimensionScore, len(ai.ScoreDimensions))
	for _, dim := range ai.ScoreDimensions {
		scores[dim] = ai.DimensionScore{
			Score:         score,
			Justification: "mock assessment",
		}
	}

	return &ai.ScoreReport{
		Scores:  scores,
		Overall: score,
		Summary: "mock item assessment",
	}, nil
}

// CallCount returns the number of times ScoreItem was called.
func (m *MockScorer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockScorer) Reset() {
	m.callCount = 0
	m.ScoreItemFunc = nil
	m.FixedScore = 0
}
