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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/itemforge"
	"github.com/poiesic/itemforge/ai"
	"github.com/poiesic/itemforge/analytics"
	"github.com/poiesic/itemforge/core"
	"github.com/poiesic/itemforge/generation"
	"github.com/poiesic/itemforge/reindex"
)

func main() {
	app := &cli.App{
		Name:  "itemforge",
		Usage: "Generation and review pipeline for multiple-choice exam items",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  "Generate a batch of exam items for a topic and upload the passing ones",
				Action: generateCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:     "topic",
						Aliases:  []string{"t"},
						Usage:    "Topic code to generate items for (e.g. TP.2)",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Number of items to generate",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "temperature",
						Usage: "Sampling temperature for the generation model",
						Value: 0.8,
					},
					&cli.StringFlag{
						Name:  "min-tier",
						Usage: "Minimum quality tier to upload (gold, silver, bronze, needs_revision)",
						Value: "bronze",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Generate and score without uploading",
					},
				),
			},
			{
				Name:   "pending",
				Usage:  "List items awaiting review",
				Action: pendingCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:    "topic",
						Aliases: []string{"t"},
						Usage:   "Only list items for this topic code",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of items to list (0 for all)",
						Value: 20,
					},
				),
			},
			{
				Name:      "review",
				Usage:     "Apply a review decision to a pending item",
				ArgsUsage: "<item-id>",
				Action:    reviewCommand,
				Flags: append(databaseFlags(),
					&cli.StringFlag{
						Name:     "decision",
						Usage:    "Review decision (upvote or downvote)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "reviewer",
						Usage:    "Reviewer identity recorded on the item",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "explanation",
						Usage: "Rationale for the decision (required for downvote)",
					},
					&cli.StringSliceFlag{
						Name:  "edit",
						Usage: "Field edit as field=value (repeatable; e.g. --edit stem=\"New stem?\")",
					},
				),
			},
			{
				Name:   "analytics",
				Usage:  "Report review outcomes over the stored item population",
				Action: analyticsCommand,
				Flags:  databaseFlags(),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every stored item with the configured embedding model",
				Action: reindexCommand,
				Flags: append(databaseFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "rules",
			Usage: "Path to the JSON rubric rule set",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Model used to draft and score items",
			Value: "gpt-4o-mini",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "text-embedding-3-small",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API token (\"none\" for local services)",
			EnvVars: []string{"ITEMFORGE_TOKEN"},
			Value:   "none",
		},
	}
}

func openDatabase(c *cli.Context) (*itemforge.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithGenerationModel(c.String("generation-model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithToken(c.String("token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []itemforge.DatabaseOption{itemforge.WithAIConfig(aiConfig)}
	if rules := c.String("rules"); rules != "" {
		opts = append(opts, itemforge.WithRulesPath(rules))
	}

	db, err := itemforge.NewDatabase(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func generateCommand(c *cli.Context) error {
	ctx := context.Background()

	minTier := core.QualityTier(c.String("min-tier"))
	switch minTier {
	case core.TierGold, core.TierSilver, core.TierBronze, core.TierNeedsRevision:
	default:
		return fmt.Errorf("invalid min-tier %q", minTier)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	retriever, err := db.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}

	gc, err := retriever.RetrieveContext(ctx, c.String("topic"))
	if err != nil {
		return fmt.Errorf("failed to retrieve generation context: %w", err)
	}

	pipeline, err := db.NewPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	batch, err := pipeline.GenerateBatch(ctx, gc, c.Int("count"), c.Float64("temperature"))
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	for _, failure := range batch.Failures {
		fmt.Fprintf(os.Stderr, "item %d failed: %v\n", failure.Index+1, failure.Err)
	}

	stats := analytics.ComputeGenerationStats(batch.Items)
	fmt.Printf("Batch %s: %d/%d items generated (avg attempts %.1f, %d diversity-flagged)\n",
		batch.BatchId, len(batch.Items), c.Int("count"), stats.AvgAttempts, stats.DiversityFlagged)
	fmt.Printf("Tiers: %v\n", formatCounts(stats.TierCounts))
	fmt.Printf("Answer keys: %v\n", stats.AnswerKeyCounts)

	if c.Bool("dry-run") {
		fmt.Println("Dry run, skipping upload.")
		return nil
	}

	uploader, err := db.NewUploader(generation.WithMinTier(minTier))
	if err != nil {
		return fmt.Errorf("failed to create uploader: %w", err)
	}
	defer uploader.Release()

	result, err := uploader.Upload(ctx, gc.Topic, batch)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Printf("Uploaded %d items for review (%d skipped below %s, %d failed)\n",
		result.Checkpoint.UploadedCount, len(result.Skipped), minTier, len(result.Failures))
	return nil
}

func pendingCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	coordinator, err := db.NewReviewCoordinator()
	if err != nil {
		return fmt.Errorf("failed to create review coordinator: %w", err)
	}

	items, err := coordinator.Pending(ctx, c.String("topic"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list pending items: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("No items pending review.")
		return nil
	}

	for _, item := range items {
		fmt.Printf("%s  [%s %s %.1f]  %s\n",
			item.Id, item.Topic, item.Tier, item.OverallScore, firstLine(item.Stem))
	}
	return nil
}

func reviewCommand(c *cli.Context) error {
	ctx := context.Background()

	itemId := c.Args().First()
	if itemId == "" {
		return fmt.Errorf("item id argument is required")
	}

	edits, err := parseEdits(c.StringSlice("edit"))
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	coordinator, err := db.NewReviewCoordinator()
	if err != nil {
		return fmt.Errorf("failed to create review coordinator: %w", err)
	}

	item, err := coordinator.ApplyDecision(ctx, itemId,
		core.ReviewDecision(c.String("decision")),
		c.String("reviewer"),
		c.String("explanation"),
		edits)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	fmt.Printf("Item %s is now %s\n", item.Id, item.Status)
	if item.WasEdited {
		fmt.Println(item.EditSummary)
	}
	return nil
}

func analyticsCommand(c *cli.Context) error {
	ctx := context.Background()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := db.Analytics(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute analytics: %w", err)
	}

	fmt.Printf("Items: %d total, %d reviewed\n", report.TotalItems, report.TotalReviewed)
	for _, status := range core.ReviewStatuses {
		count := report.StatusCounts[status]
		if count == 0 {
			continue
		}
		fmt.Printf("  %-20s %4d  (avg quality %.2f)\n",
			status, count, report.AvgQualityByStatus[status])
	}

	fmt.Printf("Approval rate: %s\n", formatRate(report.ApprovalRate))
	fmt.Printf("Edit rate:     %s\n", formatRate(report.EditRate))

	if len(report.RejectionPatterns) > 0 {
		fmt.Println("Rejections:")
		for _, pattern := range report.RejectionPatterns {
			fmt.Printf("  %s [%s, similarity %.2f]: %s\n",
				pattern.ItemId, pattern.Tier, pattern.Similarity, firstLine(pattern.Explanation))
		}
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	ctx := context.Background()

	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := db.NewReindexer(config, os.Stderr).Run(ctx); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

// parseEdits turns repeated field=value flags into an edit map.
func parseEdits(specs []string) (map[string]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	edits := make(map[string]string, len(specs))
	for _, spec := range specs {
		field, value, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid edit %q: expected field=value", spec)
		}
		edits[strings.TrimSpace(field)] = value
	}
	return edits, nil
}

func formatRate(rate *float64) string {
	if rate == nil {
		return "no data"
	}
	return fmt.Sprintf("%.1f%%", *rate*100)
}

func formatCounts(counts map[core.QualityTier]int) string {
	tiers := []core.QualityTier{core.TierGold, core.TierSilver, core.TierBronze, core.TierNeedsRevision}
	parts := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		if counts[tier] > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", tier, counts[tier]))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
