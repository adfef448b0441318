package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/siherrmann/summer"
	"github.com/siherrmann/summer/core/metrics"
	"github.com/siherrmann/summer/core/oracle"
	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/core/resilience"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
)

var relations = []model.Relation{
	{Start: "/c/en/volcano", End: "/c/en/magma", Type: "/r/Synonym", Weight: 1},
	{Start: "/c/en/volcano", End: "/c/en/volcanic_mountain", Type: "/r/Synonym", Weight: 1},
	{Start: "/c/en/magma", End: "/c/en/lava", Type: "/r/RelatedTo", Weight: 2},
	{Start: "/c/en/magma", End: "/c/en/molten_rock", Type: "/r/IsA", Weight: 1},
	{Start: "/c/en/volcano", End: "/c/en/eruption", Type: "/r/RelatedTo", Weight: 1.5},
	{Start: "/c/en/eruption", End: "/c/en/ash", Type: "/r/Causes", Weight: 1},
	{Start: "/c/en/eruption", End: "/c/en/earthquake", Type: "/r/RelatedTo", Weight: 0.5},
	{Start: "/c/en/volcano", End: "/c/en/crater", Type: "/r/HasA", Weight: 1},
	{Start: "/c/en/crater", End: "/c/en/vent", Type: "/r/RelatedTo", Weight: 1},
}

var questions = []model.Question{
	{
		ID:    "volcano-1",
		Title: "Why does a volcano erupt?",
		Answers: []model.Answer{
			{Content: "Molten rock called magma rises because it is lighter than the rock around it. It gathers in a chamber below the volcano."},
			{Content: "Gas in the magma builds pressure until the volcano erupts through a vent. Lava and ash are thrown out of the crater."},
			{Content: "Small earthquakes often come before an eruption. Scientists watch them closely. I saw a documentary about it once."},
		},
	},
	{
		ID:    "volcano-2",
		Title: "Is lava the same as magma?",
		Answers: []model.Answer{
			{Content: "Magma is molten rock below the surface. Once it reaches the surface it is called lava."},
			{Content: "Yes and no. Lava cools into new rock around the crater."},
		},
	},
}

func main() {
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
	}))

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "summer",
		Username: "summer",
		Password: "summer",
		Schema:   "public",
		SSLMode:  "disable",
	}

	// Stored assertions plus the two nearest concepts by embedding
	graph, db, err := summer.OpenPostgres(dbConfig, pipeline.EmbeddingDim, oracle.PostgresOptions{
		SimilarLimit:     2,
		SimilarThreshold: 0.6,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to open postgres oracle: %v", err)
	}
	defer db.Close()

	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	ctx := context.Background()
	if err := graph.Import(ctx, relations, embedder); err != nil {
		log.Fatalf("Failed to import relations: %v", err)
	}

	m := metrics.NewPipelineMetrics("advanced_example")
	relationOracle := oracle.NewCache(oracle.NewResilient(graph, "postgres", resilience.DefaultConfig(), m, logger))

	// Ranked expansion keeps the top synonyms before the relate hop
	config := model.DefaultSparseConfig()
	config.Expansion.Strategy = model.ExpansionWeightedRankedSynonymThenRelate
	config.Rank.Strategy = model.RankPageRank

	s, err := summer.NewSummer(config, relationOracle, logger)
	if err != nil {
		log.Fatalf("Failed to create summer: %v", err)
	}
	s.SetMetrics(m)

	for i := range questions {
		summary, err := s.Summarize(ctx, &questions[i])
		if err != nil {
			log.Fatalf("Failed to summarize %s: %v", questions[i].ID, err)
		}

		fmt.Printf("\n--- %s: %s ---\n", questions[i].ID, questions[i].Title)
		fmt.Printf("Expanded: %v\n", summary.Expanded)
		fmt.Printf("Report: expanded=%d hit=%d ratio=%.2f hit sentences=%d\n",
			summary.Report.ExpandedCount, summary.Report.HitCount, summary.Report.HitRatio, summary.Report.HitSentenceCount)
		fmt.Printf("Summary (%s, %d words): %s\n", summary.Result.Status, summary.Result.Length, summary.Result.Text())
	}

	fmt.Printf("\nCached concepts: %d\n", relationOracle.Len())
	fmt.Println("Advanced example completed successfully!")
}
