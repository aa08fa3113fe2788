package ai

// ScoreDimensions names the rubric dimensions every scorer must cover, in
// report order.
var ScoreDimensions = []string{
	"stimulus",
	"stem",
	"key",
	"distractors",
	"alignment",
	"language",
	"style",
	"fairness",
}

// GenerationRequest carries everything the drafting model needs for one item.
type GenerationRequest struct {
	// Topic is the topic code the item must align to, e.g. "TP.2".
	Topic string

	// Evidence holds the target evidence statements in expanded
	// "code: text" form.
	Evidence []string

	// TopicDefinition is the rubric's definition of the topic, if any.
	TopicDefinition string

	// RubricContext is the full formatted rubric rule text.
	RubricContext string

	// Examples holds formatted semantic examples retrieved for the topic.
	Examples string

	// ReferenceItems holds formatted high-quality prior items, for style
	// reference only.
	ReferenceItems string

	// PreviousScenarios lists scenario texts already accepted in the current
	// batch, most recent first, to bias the model against repetition.
	PreviousScenarios []string

	// Temperature is the sampling temperature.
	Temperature float64
}

// Draft is the raw structured output of the drafting model, before
// post-processing.
type Draft struct {
	Topic         string            `json:"topic"`
	Evidence      []string          `json:"evidence_statements"`
	Stimulus      string            `json:"stimulus"`
	Stem          string            `json:"stem"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Rationale     string            `json:"rationale"`
}

// ScoringRequest carries the item fields the scoring model needs.
type ScoringRequest struct {
	Topic    string
	Evidence []string

	// RubricContext is the full formatted rubric rule text.
	RubricContext string

	Item *Draft
}

// DimensionScore is one rubric dimension's assessment.
type DimensionScore struct {
	Score         float64  `json:"score"`
	Justification string   `json:"justification"`
	Issues        []string `json:"issues"`
}

// ScoreReport is the scoring model's assessment of a single item.
type ScoreReport struct {
	Scores      map[string]DimensionScore `json:"scores"`
	Overall     float64                   `json:"overall_score"`
	Summary     string                    `json:"summary"`
	Suggestions []string                  `json:"improvement_suggestions"`
}

// DimensionValues flattens the report to a numeric score per dimension.
func (r *ScoreReport) DimensionValues() map[string]float64 {
	values := make(map[string]float64, len(r.Scores))
	for dim, ds := range r.Scores {
		values[dim] = ds.Score
	}
	return values
}
