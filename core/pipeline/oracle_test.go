package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/summer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func volcanoLookup(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	relations := []model.Relation{
		{Start: "volcano", End: "vulcan", Type: model.RelationSynonym, Weight: 1},
		{Start: "volcano", End: "magma", Type: model.RelationRelatedTo, Weight: 2},
		{Start: "lava", End: "volcano", Type: "/r/PartOf", Weight: 1.5},
		{Start: "volcano", End: "magma", Type: model.RelationHasA, Weight: -0.5},
		{Start: "volcano", End: "snow", Type: model.RelationNotDesires, Weight: 1},
		{Start: "volcano", End: "volcano", Type: model.RelationRelatedTo, Weight: 1},
	}
	if e != "volcano" {
		return nil, nil
	}
	return relations, nil
}

func TestLookupOracle(t *testing.T) {
	ctx := context.Background()
	oracle := OracleFromLookup(volcanoLookup)

	t.Run("Synonyms follow synonym relations only", func(t *testing.T) {
		synonyms, err := oracle.SynonymOf(ctx, "volcano")
		require.NoError(t, err)
		assert.Equal(t, []model.Entity{"vulcan"}, synonyms.Items())
	})

	t.Run("Related entities skip negated relations and self loops", func(t *testing.T) {
		related, err := oracle.RelatedTo(ctx, "volcano")
		require.NoError(t, err)
		assert.Equal(t, []model.Entity{"vulcan", "magma", "lava"}, related.Items())
	})

	t.Run("Weighted relations keep negated relations", func(t *testing.T) {
		relations, err := oracle.RelatedToWeighted(ctx, "volcano")
		require.NoError(t, err)
		assert.Len(t, relations, 5)
	})

	t.Run("Strength sums absolute weights in both directions", func(t *testing.T) {
		strength, err := oracle.Strength(ctx, "volcano", "magma")
		require.NoError(t, err)
		assert.InDelta(t, 2.5, strength, 1e-12)

		strength, err = oracle.Strength(ctx, "volcano", "lava")
		require.NoError(t, err)
		assert.InDelta(t, 1.5, strength, 1e-12)
	})

	t.Run("Unknown entities have no neighbors", func(t *testing.T) {
		related, err := oracle.RelatedTo(ctx, "glacier")
		require.NoError(t, err)
		assert.Equal(t, 0, related.Len())
	})

	t.Run("Lookup errors are returned", func(t *testing.T) {
		failing := OracleFromLookup(func(ctx context.Context, e model.Entity) ([]model.Relation, error) {
			return nil, errors.New("unavailable")
		})

		_, err := failing.SynonymOf(ctx, "volcano")
		assert.Error(t, err)
		_, err = failing.Strength(ctx, "volcano", "magma")
		assert.Error(t, err)
	})
}
