package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// IDFromContent generates a deterministic ID from text content using BLAKE2b
// hashing. Identical content produces identical IDs, which keeps gold-standard
// seeding idempotent.
func IDFromContent(text string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// ReviewStatus is the lifecycle state of a persisted item under human oversight.
type ReviewStatus string

const (
	// StatusGoldStandard marks seed data. It is never reachable via a review
	// transition.
	StatusGoldStandard ReviewStatus = "gold_standard"
	// StatusPendingReview is the initial state assigned on upload.
	StatusPendingReview ReviewStatus = "pending_review"
	// StatusApproved means a reviewer upvoted the item without edits.
	StatusApproved ReviewStatus = "approved"
	// StatusApprovedWithEdits means a reviewer upvoted the item after editing
	// one or more fields.
	StatusApprovedWithEdits ReviewStatus = "approved_with_edits"
	// StatusRejected means a reviewer downvoted the item.
	StatusRejected ReviewStatus = "rejected"
)

// ReviewStatuses lists every valid review status.
var ReviewStatuses = []ReviewStatus{
	StatusGoldStandard,
	StatusPendingReview,
	StatusApproved,
	StatusApprovedWithEdits,
	StatusRejected,
}

// Terminal reports whether the status admits no further review transitions.
func (s ReviewStatus) Terminal() bool {
	switch s {
	case StatusApproved, StatusApprovedWithEdits, StatusRejected:
		return true
	}
	return false
}

// ReviewDecision is a human reviewer's verdict on a pending item.
type ReviewDecision string

const (
	DecisionUpvote   ReviewDecision = "upvote"
	DecisionDownvote ReviewDecision = "downvote"
)

// QualityTier is the coarse quality bucket derived from the overall score.
type QualityTier string

const (
	TierGold          QualityTier = "gold"
	TierSilver        QualityTier = "silver"
	TierBronze        QualityTier = "bronze"
	TierNeedsRevision QualityTier = "needs_revision"
)

// Tier score floors. An item belongs to the highest tier whose floor its
// overall score meets.
const (
	GoldFloor   = 4.5
	SilverFloor = 3.5
	BronzeFloor = 2.5
)

// TierForScore maps an overall quality score to its tier. Boundaries are
// inclusive on the lower bound.
func TierForScore(overall float64) QualityTier {
	switch {
	case overall >= GoldFloor:
		return TierGold
	case overall >= SilverFloor:
		return TierSilver
	case overall >= BronzeFloor:
		return TierBronze
	default:
		return TierNeedsRevision
	}
}

// FloorForTier returns the minimum overall score for a tier.
// TierNeedsRevision has no floor and returns 0.
func FloorForTier(tier QualityTier) float64 {
	switch tier {
	case TierGold:
		return GoldFloor
	case TierSilver:
		return SilverFloor
	case TierBronze:
		return BronzeFloor
	}
	return 0
}

// OptionKeys are the answer option positions, in order.
var OptionKeys = []string{"A", "B", "C", "D"}

// ExamItem is a generated multiple-choice exam item together with its quality,
// review and generation-trace metadata. Items are created by the generation
// pipeline, persisted with StatusPendingReview, and afterwards mutated only by
// review transitions. Items are never deleted.
type ExamItem struct {
	Id       string
	Topic    string
	Evidence []string // expanded evidence statements, "2.e: ..." form

	Stimulus      string
	Stem          string
	Options       map[string]string // keyed A-D, exactly four entries
	CorrectAnswer string
	Rationale     string

	Scores         map[string]float64 // 0-5 per scoring dimension
	OverallScore   float64
	Tier           QualityTier
	QualitySummary string

	Status            ReviewStatus
	ReviewDecision    ReviewDecision
	ReviewExplanation string
	ReviewedBy        string
	ReviewedAt        time.Time

	WasEdited       bool
	OriginalVersion map[string]string // pre-edit values of edited fields
	EditSummary     string

	BatchId                string
	GenerationAttempt      int // 1-3
	SimilarityAtGeneration float32

	Vector []float32 // embedding of ContentText, normalized

	CreatedAt time.Time
	ScoredAt  time.Time
	UpdatedAt time.Time
}

// ContentText assembles the searchable text representation of the item. This
// is the text that gets embedded for similarity retrieval.
func (it *ExamItem) ContentText() string {
	var sb strings.Builder
	sb.WriteString("Topic: " + it.Topic + "\n")
	sb.WriteString("Evidence: " + strings.Join(it.Evidence, ", ") + "\n")
	sb.WriteString("Stimulus: " + it.Stimulus + "\n")
	sb.WriteString("Stem: " + it.Stem + "\n")
	sb.WriteString("Options:")
	for _, key := range OptionKeys {
		sb.WriteString(" " + key + ") " + it.Options[key])
	}
	sb.WriteString("\n")
	sb.WriteString("Correct: " + it.CorrectAnswer + "\n")
	sb.WriteString("Rationale: " + it.Rationale)
	return sb.String()
}

// ItemMatch represents an exam item match from vector similarity search.
type ItemMatch struct {
	Item  *ExamItem
	Score float32
}

// BatchCheckpoint is the durable record of a generation batch suspended
// between upload and human review. It is written when accepted items are
// uploaded and advanced as reviewers work through the pending list.
type BatchCheckpoint struct {
	BatchId        string
	Topic          string
	PendingItemIds []string
	UploadedCount  int
	DecidedCount   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
