package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/siherrmann/summer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFinder returns every known word of the text as an entity.
func mockFinder(known ...string) EntityFinder {
	vocab := make(map[string]bool, len(known))
	for _, k := range known {
		vocab[k] = true
	}
	return func(ctx context.Context, text string) (*model.EntitySet, error) {
		entities := model.NewEntitySet()
		for _, w := range tokenizeWords(text) {
			if vocab[w] {
				entities.Add(model.Entity(w))
			}
		}
		return entities, nil
	}
}

func TestPipelineTitleEntities(t *testing.T) {
	p := NewPipeline(mockFinder("volcano", "eruption", "lava"), nil, nil)

	t.Run("Collect entities of every title sentence", func(t *testing.T) {
		entities, err := p.TitleEntities(context.Background(), "Why does a volcano erupt? What is an eruption. Lava!")
		require.NoError(t, err, "Expected TitleEntities to not return an error")
		assert.Equal(t, []model.Entity{"volcano", "eruption", "lava"}, entities.Items())
	})

	t.Run("Empty title has no entities", func(t *testing.T) {
		entities, err := p.TitleEntities(context.Background(), "  ")
		require.NoError(t, err)
		assert.Equal(t, 0, entities.Len())
	})

	t.Run("Finder error is returned", func(t *testing.T) {
		failing := NewPipeline(func(ctx context.Context, text string) (*model.EntitySet, error) {
			return nil, errors.New("model not loaded")
		}, nil, nil)

		_, err := failing.TitleEntities(context.Background(), "Volcano")
		assert.Error(t, err)
	})
}

func TestPipelineRecords(t *testing.T) {
	t.Run("Keep sentences with entities in encounter order", func(t *testing.T) {
		p := NewPipeline(mockFinder("magma", "volcano"), nil, nil)

		records := p.Records(context.Background(), []string{
			"Magma rises. Nothing here. The volcano erupts.",
			"Magma and volcano.",
		})

		require.Len(t, records, 3)
		assert.Equal(t, "Magma rises.", records[0].Sentence)
		assert.Equal(t, "The volcano erupts.", records[1].Sentence)
		assert.Equal(t, []model.Entity{"magma", "volcano"}, records[2].Entities.Items())
	})

	t.Run("Skip sentences the finder fails on", func(t *testing.T) {
		finder := func(ctx context.Context, text string) (*model.EntitySet, error) {
			if strings.Contains(text, "bad") {
				return nil, errors.New("tokenizer overflow")
			}
			return model.NewEntitySet("ok"), nil
		}
		p := NewPipeline(finder, nil, nil)

		records := p.Records(context.Background(), []string{"A bad sentence. A good sentence."})
		require.Len(t, records, 1)
		assert.Equal(t, "A good sentence.", records[0].Sentence)
	})

	t.Run("No answers give no records", func(t *testing.T) {
		p := NewPipeline(mockFinder("magma"), nil, nil)
		assert.Empty(t, p.Records(context.Background(), nil))
	})

	t.Run("Cancelled context stops early", func(t *testing.T) {
		p := NewPipeline(mockFinder("magma"), nil, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Empty(t, p.Records(ctx, []string{"Magma rises."}))
	})
}

func TestCombineFinders(t *testing.T) {
	t.Run("Merge in finder order", func(t *testing.T) {
		f := CombineFinders(mockFinder("lava"), mockFinder("magma", "lava"))

		entities, err := f(context.Background(), "magma and lava")
		require.NoError(t, err)
		assert.Equal(t, []model.Entity{"lava", "magma"}, entities.Items())
	})

	t.Run("Fail when one finder fails", func(t *testing.T) {
		f := CombineFinders(mockFinder("lava"), func(ctx context.Context, text string) (*model.EntitySet, error) {
			return nil, errors.New("boom")
		})

		_, err := f(context.Background(), "lava")
		assert.Error(t, err)
	})
}
