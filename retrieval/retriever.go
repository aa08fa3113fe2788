package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/rubric"
	"github.com/poiesic/itemforge/storage"
)

const (
	// referenceSimilarityThreshold filters reference items by vector
	// similarity to the topic query.
	referenceSimilarityThreshold = 0.60

	// maxReferenceItems caps the reference items included in a prompt.
	maxReferenceItems = 5

	// maxExampleRules caps the rubric example chunks included in a prompt.
	maxExampleRules = 5

	// maxEvidencePerItem caps the evidence statements targeted by one item.
	maxEvidencePerItem = 3
)

// GenerationContext is the retrieved material handed to the generation loop.
type GenerationContext struct {
	// Topic is the topic code the context was built for.
	Topic string

	// TopicDefinition is the rubric's definition of the topic, if any.
	TopicDefinition string

	// Evidence holds the targeted evidence statements in expanded form.
	Evidence []string

	// RubricContext is the full formatted rubric rule text.
	RubricContext string

	// Examples holds the rubric example chunks most relevant to the topic,
	// formatted for the prompt.
	Examples string

	// ReferenceItems holds formatted high-quality prior items.
	ReferenceItems string
}

// Retriever assembles generation context from the rubric and the item index.
type Retriever struct {
	items    storage.ItemRepository
	rules    *rubric.RuleSet
	evidence rubric.EvidenceMap
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	items storage.ItemRepository,
	rules *rubric.RuleSet,
	evidence rubric.EvidenceMap,
	provider ai.Provider,
	opts ...Option,
) (*Retriever, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if rules == nil {
		return nil, ErrRuleSetRequired
	}
	if evidence == nil {
		return nil, ErrEvidenceMapRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	r := &Retriever{
		items:    items,
		rules:    rules,
		evidence: evidence,
		embedder: provider.Embedder(),
		logger:   slog.Default().With("component", "retriever"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// RetrieveContext builds the generation context for a topic: the mandatory
// rubric rules, the topic's evidence statements, and high-quality prior items
// found by vector search over the index.
func (r *Retriever) RetrieveContext(ctx context.Context, topic string) (*GenerationContext, error) {
	evidence := r.evidence.ForTopic(topic, maxEvidencePerItem)
	if len(evidence) == 0 {
		return nil, fmt.Errorf("%w: no evidence statements for topic %q", core.ErrInvalidInput, topic)
	}

	gc := &GenerationContext{
		Topic:           topic,
		TopicDefinition: r.rules.TopicDefinition(topic),
		Evidence:        evidence,
		RubricContext:   r.rules.FormatForPrompt(),
	}

	query := "multiple-choice exam item aligned to topic " + topic + ": " + strings.Join(evidence, " ")
	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for topic query", "topic", topic, "err", err)
		return nil, core.Upstreamf("embed topic query", err)
	}

	examples, err := r.retrieveExamples(ctx, embedding)
	if err != nil {
		r.logger.Error("error retrieving rubric examples", "topic", topic, "err", err)
		return nil, err
	}
	gc.Examples = examples

	matches, err := r.items.FindSimilar(ctx, embedding, referenceSimilarityThreshold, maxReferenceItems)
	if err != nil {
		r.logger.Error("error querying for reference items", "topic", topic, "err", err)
		return nil, core.Upstreamf("find reference items", err)
	}

	gc.ReferenceItems = formatReferenceItems(matches)

	r.logger.Debug("retrieved generation context",
		"topic", topic,
		"evidence", len(evidence),
		"references", len(matches))
	return gc, nil
}

// retrieveExamples ranks the rubric's worked-example chunks against the topic
// query embedding and formats the closest ones. An empty string means the
// rubric carries no example chunks.
func (r *Retriever) retrieveExamples(ctx context.Context, query []float32) (string, error) {
	candidates := r.rules.ExampleRules()
	if len(candidates) == 0 {
		return "", nil
	}

	texts := make([]string, len(candidates))
	for i, rule := range candidates {
		texts[i] = rule.Content
	}

	vectors, err := r.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return "", core.Upstreamf("embed rubric examples", err)
	}
	if len(vectors) != len(candidates) {
		return "", fmt.Errorf("%w: embedded %d of %d rubric examples", core.ErrUpstream, len(vectors), len(candidates))
	}

	type ranked struct {
		rule  rubric.Rule
		score float32
	}
	scored := make([]ranked, len(candidates))
	for i, rule := range candidates {
		scored[i] = ranked{rule: rule, score: core.CosineSimilarity(query, vectors[i])}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	if len(scored) > maxExampleRules {
		scored = scored[:maxExampleRules]
	}

	var sections []string
	for _, s := range scored {
		sections = append(sections, fmt.Sprintf("[%s | %s]\n%s", s.rule.Category, s.rule.Subsection, s.rule.Content))
	}
	return strings.Join(sections, "\n\n"), nil
}

// formatReferenceItems renders reviewed, high-quality matches into a prompt
// section. Unreviewed and rejected items are excluded.
func formatReferenceItems(matches []*core.ItemMatch) string {
	var sb strings.Builder
	n := 0
	for _, match := range matches {
		item := match.Item
		switch item.Status {
		case core.StatusGoldStandard, core.StatusApproved, core.StatusApprovedWithEdits:
		default:
			continue
		}

		n++
		fmt.Fprintf(&sb, "--- Reference %d (%s, similarity %.2f) ---\n", n, item.Status, match.Score)
		fmt.Fprintf(&sb, "Stimulus: %s\n", item.Stimulus)
		fmt.Fprintf(&sb, "Stem: %s\n", item.Stem)
		for _, key := range core.OptionKeys {
			fmt.Fprintf(&sb, "  %s. %s\n", key, item.Options[key])
		}
		fmt.Fprintf(&sb, "Correct: %s\n\n", item.CorrectAnswer)
	}
	return strings.TrimSpace(sb.String())
}
