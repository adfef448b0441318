package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
)

// DefaultEntityFinder creates an entity finder using a NER model
// Uses distilbert-NER for named entity recognition
// Entities scoring below minScore are dropped.
func DefaultEntityFinder(minScore float32) (EntityFinder, error) {
	modelPath, err := helper.PrepareModel("KnightsAnalytics/distilbert-NER", "model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create NER pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create NER pipeline: %w", err)
	}

	return func(ctx context.Context, text string) (*model.EntitySet, error) {
		entities := model.NewEntitySet()
		if strings.TrimSpace(text) == "" {
			return entities, nil
		}

		result, err := nerPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to run NER: %w", err)
		}
		if len(result.Entities) == 0 {
			return entities, nil
		}

		for _, entity := range result.Entities[0] {
			if entity.Score < minScore {
				continue
			}
			entities.Add(model.NormalizeEntity(strings.TrimPrefix(entity.Word, "##")))
		}
		return entities, nil
	}, nil
}

// CombineFinders merges the entities of several finders in finder order.
// A failing finder fails the combination.
func CombineFinders(finders ...EntityFinder) EntityFinder {
	return func(ctx context.Context, text string) (*model.EntitySet, error) {
		entities := model.NewEntitySet()
		for _, f := range finders {
			found, err := f(ctx, text)
			if err != nil {
				return nil, err
			}
			entities.AddAll(found)
		}
		return entities, nil
	}
}
