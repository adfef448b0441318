package pipeline

import (
	"fmt"
	"math"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/summer/helper"
)

// EmbeddingDim is the size of the vectors DefaultEmbedder returns.
const EmbeddingDim = 384

// DefaultEmbedder embeds concept names with the all-MiniLM-L6-v2 sentence
// transformer. Vectors have unit length so cosine and inner product agree.
func DefaultEmbedder() (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel("sentence-transformers/all-MiniLM-L6-v2", "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "concept-embedder",
	}
	conceptPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return func(concept string) ([]float32, error) {
		result, err := conceptPipeline.RunPipeline([]string{concept})
		if err != nil {
			return nil, fmt.Errorf("failed to embed %q: %w", concept, err)
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding for %q", concept)
		}
		return unitLength(result.Embeddings[0]), nil
	}, nil
}

// unitLength scales v to length one in place. Zero vectors stay zero.
func unitLength(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= norm
	}
	return v
}
