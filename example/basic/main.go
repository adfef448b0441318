package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/summer"
	"github.com/siherrmann/summer/core/oracle"
	"github.com/siherrmann/summer/model"
)

func main() {
	// A tiny knowledge graph kept in memory
	graph, err := oracle.NewStatic([]model.Relation{
		{Start: "/c/en/volcano", End: "/c/en/magma", Type: "/r/Synonym", Weight: 1},
		{Start: "/c/en/magma", End: "/c/en/lava", Type: "/r/RelatedTo", Weight: 2},
		{Start: "/c/en/volcano", End: "/c/en/eruption", Type: "/r/RelatedTo", Weight: 1},
		{Start: "/c/en/eruption", End: "/c/en/ash", Type: "/r/Causes", Weight: 1},
		{Start: "/c/en/volcano", End: "/c/en/crater", Type: "/r/HasA", Weight: 1},
	})
	if err != nil {
		log.Fatalf("Failed to create knowledge graph: %v", err)
	}

	config := model.DefaultSparseConfig()
	config.Expansion.Strategy = model.ExpansionSynonymThenRelate

	s, err := summer.NewSummer(config, graph, nil)
	if err != nil {
		log.Fatalf("Failed to create summer: %v", err)
	}

	question := &model.Question{
		ID:    "volcano-1",
		Title: "How does a volcano erupt?",
		Answers: []model.Answer{
			{Content: "Deep below the surface rock melts into magma. The magma collects in a chamber under the volcano. My cousin visited Italy last year."},
			{Content: "When the pressure grows too high the volcano erupts. Lava pours out of the crater and ash rises into the sky."},
			{Content: "An eruption can last for days. Thanks for asking, great question!"},
		},
	}

	summary, err := s.Summarize(context.Background(), question)
	if err != nil {
		log.Fatalf("Failed to summarize: %v", err)
	}

	fmt.Printf("Title entities: %v\n", summary.Title)
	fmt.Printf("Expanded entities: %v\n", summary.Expanded)
	fmt.Printf("Hit ratio: %.2f\n", summary.Report.HitRatio)
	fmt.Printf("\nSummary (%s, %d words):\n%s\n", summary.Result.Status, summary.Result.Length, summary.Result.Text())
}
