package oracle

import (
	"context"
	"strings"
	"testing"

	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()

	static, err := LoadStatic("testdata/volcano.yaml")
	require.NoError(t, err, "Expected the relation file to load")

	t.Run("Load and normalize relations", func(t *testing.T) {
		assert.Equal(t, 4, static.Len())

		relations, err := static.Lookup(ctx, "volcano")
		require.NoError(t, err)
		require.Len(t, relations, 3)
		assert.Equal(t, model.Relation{Start: "volcano", End: "magma", Type: model.RelationSynonym, Weight: 1}, relations[0])
	})

	t.Run("Index relations by both endpoints", func(t *testing.T) {
		relations, err := static.Lookup(ctx, "lava")
		require.NoError(t, err)
		require.Len(t, relations, 1)
		assert.Equal(t, model.Entity("magma"), relations[0].Start)
	})

	t.Run("Answer oracle questions", func(t *testing.T) {
		synonyms, err := static.SynonymOf(ctx, "volcano")
		require.NoError(t, err)
		assert.Equal(t, []model.Entity{"magma"}, synonyms.Items())

		related, err := static.RelatedTo(ctx, "volcano")
		require.NoError(t, err)
		assert.Equal(t, []model.Entity{"magma", "eruption"}, related.Items(), "Expected the negated relation to be skipped")

		strength, err := static.Strength(ctx, "lava", "magma")
		require.NoError(t, err)
		assert.Equal(t, 2.0, strength)
	})

	t.Run("Serve as a vocabulary", func(t *testing.T) {
		var vocabulary pipeline.Vocabulary = static
		known, err := vocabulary.Has(ctx, "eruption")
		require.NoError(t, err)
		assert.True(t, known)

		known, err = vocabulary.Has(ctx, "glacier")
		require.NoError(t, err)
		assert.False(t, known)
	})

	t.Run("List relations in file order", func(t *testing.T) {
		relations := static.Relations()
		require.Len(t, relations, 4)
		assert.Equal(t, model.Entity("volcano"), relations[0].Start)
		assert.Equal(t, model.RelationNotDesires, relations[3].Type)
	})

	t.Run("List every entity", func(t *testing.T) {
		assert.ElementsMatch(t, []model.Entity{"volcano", "magma", "lava", "eruption", "calm"}, static.Entities().Items())
	})

	t.Run("Returned relations are copies", func(t *testing.T) {
		relations, err := static.Lookup(ctx, "lava")
		require.NoError(t, err)
		relations[0].Weight = 100

		again, err := static.Lookup(ctx, "lava")
		require.NoError(t, err)
		assert.Equal(t, 2.0, again[0].Weight)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := static.Lookup(cancelled, "volcano")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseStatic(t *testing.T) {
	t.Run("Empty file is an empty graph", func(t *testing.T) {
		static, err := ParseStatic(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, 0, static.Len())
	})

	t.Run("Incomplete relation is a configuration error", func(t *testing.T) {
		_, err := ParseStatic(strings.NewReader("relations:\n  - start: volcano\n    rel: Synonym\n"))
		assert.True(t, helper.IsConfigurationError(err), "Expected a configuration error, got %v", err)
	})

	t.Run("Invalid yaml", func(t *testing.T) {
		_, err := ParseStatic(strings.NewReader("relations: ["))
		assert.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := LoadStatic("testdata/missing.yaml")
		assert.Error(t, err)
	})
}
