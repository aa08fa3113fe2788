package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/ai/openai"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/rubric"
	"github.com/poiesic/itemforge/storage/badger"
)

var (
	seedFileName   = flag.String("src", "", "JSONL file of gold-standard items")
	dbPath         = flag.String("db", "./items_db", "path to BadgerDB database directory")
	embeddingHost  = flag.String("embedding-host", "http://localhost:11434/v1", "embedding service host URL")
	embeddingModel = flag.String("embedding-model", "text-embedding-3-small", "embedding model name")
	token          = flag.String("token", "none", "API token")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// seedRecord is one gold-standard item as it appears in the seed file.
type seedRecord struct {
	Topic         string            `json:"topic"`
	Evidence      []string          `json:"evidence_statements"`
	Stimulus      string            `json:"stimulus"`
	Stem          string            `json:"stem"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Rationale     string            `json:"rationale"`
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// itemFromRecord converts a seed record into a gold-standard exam item. The
// id is a content hash, so reseeding the same file is idempotent.
func itemFromRecord(record *seedRecord, evidence rubric.EvidenceMap) (*core.ExamItem, error) {
	expanded, err := evidence.ExpandAll(record.Evidence)
	if err != nil {
		return nil, err
	}

	item := &core.ExamItem{
		Topic:         record.Topic,
		Evidence:      expanded,
		Stimulus:      record.Stimulus,
		Stem:          record.Stem,
		Options:       record.Options,
		CorrectAnswer: strings.ToUpper(strings.TrimSpace(record.CorrectAnswer)),
		Rationale:     record.Rationale,
		Status:        core.StatusGoldStandard,
		Tier:          core.TierGold,
	}
	if err := core.ValidateOptions(item.Options, item.CorrectAnswer); err != nil {
		return nil, err
	}

	item.Id = core.IDFromContent(item.ContentText())
	return item, nil
}

func seed(ctx context.Context, items *badger.ItemRepository, embedder ai.Embedder, source iter.Seq[string]) (int, error) {
	evidence := rubric.DefaultEvidenceMap()

	count := 0
	lineNo := 0
	for line := range source {
		lineNo++
		if strings.TrimSpace(line) == "" {
			continue
		}

		var record seedRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return count, fmt.Errorf("line %d: %w", lineNo, err)
		}

		item, err := itemFromRecord(&record, evidence)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", lineNo, err)
		}

		vector, err := embedder.EmbedText(ctx, item.ContentText())
		if err != nil {
			return count, fmt.Errorf("line %d: embed item: %w", lineNo, err)
		}
		item.Vector = core.NormalizeVector(vector)

		if err := items.UpsertItems(ctx, item); err != nil {
			return count, fmt.Errorf("line %d: store item: %w", lineNo, err)
		}

		slog.Info("seeded gold-standard item", "id", item.Id, "topic", item.Topic)
		count++
	}

	return count, nil
}

func main() {
	if *seedFileName == "" {
		fmt.Fprintln(os.Stderr, "usage: seeder -src items.jsonl [-db ./items_db]")
		os.Exit(2)
	}

	source, err := linesFromFile(*seedFileName)
	if err != nil {
		panic(err)
	}

	backend, err := badger.OpenBackend(*dbPath, false)
	if err != nil {
		panic(err)
	}
	defer backend.Close()

	items := badger.NewItemRepository(backend)

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(*embeddingHost),
		ai.WithEmbeddingModel(*embeddingModel),
		ai.WithToken(*token),
	)
	if err := aiConfig.Validate(); err != nil {
		panic(err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	count, err := seed(ctx, items, embedder, source)
	if err != nil {
		panic(err)
	}

	slog.Info("seeding complete", "items", count)
}
