package ilp

import (
	"testing"

	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(sentence string, entities ...model.Entity) model.SentenceEntityRecord {
	return model.SentenceEntityRecord{Sentence: sentence, Entities: model.NewEntitySet(entities...)}
}

func hitScores(scores map[model.Entity]float64, order ...model.Entity) *model.WeightedEntities {
	hit := model.NewWeightedEntities()
	for _, e := range order {
		hit.Set(e, scores[e])
	}
	return hit
}

func TestIndex(t *testing.T) {
	hit := hitScores(map[model.Entity]float64{"volcano": 2, "eruption": 1.5, "magma": 1, "glacier": 0.5},
		"volcano", "eruption", "magma", "glacier")
	config := model.IndexConfig{MinOverlap: 2, MinLength: 3, MaxLength: 8}

	t.Run("Filter by overlap and length", func(t *testing.T) {
		records := []model.SentenceEntityRecord{
			record("Magma feeds the volcano.", "magma", "volcano"),
			record("The volcano is tall.", "volcano", "height"),
			record("Eruption.", "eruption", "volcano"),
			record("A volcano eruption pushes magma through many layers of old rock.", "volcano", "eruption", "magma"),
			record("Every eruption starts deep below the volcano.", "eruption", "volcano"),
		}

		index := Index(records, hit, pipeline.WordLength, config)

		assert.Equal(t, []string{"Magma feeds the volcano.", "Every eruption starts deep below the volcano."}, index.SentenceByID)
		assert.Equal(t, [][]model.Entity{{"magma", "volcano"}, {"eruption", "volcano"}}, index.SentenceEntities)
	})

	t.Run("Assign entity ids in hit order", func(t *testing.T) {
		index := Index([]model.SentenceEntityRecord{record("Magma feeds the volcano.", "magma", "volcano")}, hit, pipeline.WordLength, config)

		assert.Equal(t, []model.Entity{"volcano", "eruption", "magma", "glacier"}, index.EntityByID)
		assert.Equal(t, 2, index.EntityIndex["magma"])
		assert.Equal(t, [][]int{{1}, {0}, {1}, {0}}, index.Occurrence)
	})

	t.Run("Keep the first of duplicate sentences", func(t *testing.T) {
		records := []model.SentenceEntityRecord{
			record("Magma feeds the volcano.", "magma", "volcano"),
			record("  Magma feeds the volcano.  ", "magma", "volcano", "eruption"),
		}

		index := Index(records, hit, pipeline.WordLength, config)
		require.Equal(t, 1, index.NumSentences())
		assert.Equal(t, 0, index.SentenceIndex["Magma feeds the volcano."])
		assert.Equal(t, []model.Entity{"magma", "volcano"}, index.SentenceEntities[0])
	})

	t.Run("Store trimmed sentence text", func(t *testing.T) {
		index := Index([]model.SentenceEntityRecord{record("  Magma feeds the volcano.\n", "magma", "volcano")}, hit, pipeline.WordLength, config)

		assert.Equal(t, []string{"Magma feeds the volcano."}, index.SentenceByID)
	})

	t.Run("Indexing is idempotent", func(t *testing.T) {
		records := []model.SentenceEntityRecord{
			record("Magma feeds the volcano.", "magma", "volcano"),
			record("Every eruption starts deep below the volcano.", "eruption", "volcano"),
		}

		first := Index(records, hit, pipeline.WordLength, config)
		second := Index(records, hit, pipeline.WordLength, config)
		assert.Equal(t, first, second)
	})

	t.Run("Empty records give an empty index", func(t *testing.T) {
		index := Index(nil, model.NewWeightedEntities(), pipeline.WordLength, config)

		assert.Equal(t, 0, index.NumSentences())
		assert.Equal(t, 0, index.NumEntities())
		assert.Empty(t, index.Occurrence)
	})
}
