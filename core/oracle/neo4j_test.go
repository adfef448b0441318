package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records cypher calls and answers reads from rows.
type fakeRunner struct {
	rows   []map[string]any
	err    error
	reads  []map[string]any
	writes []string
	params []map[string]any
	closed bool
}

func (f *fakeRunner) read(_ context.Context, _ string, params map[string]any) ([]map[string]any, error) {
	f.reads = append(f.reads, params)
	return f.rows, f.err
}

func (f *fakeRunner) write(_ context.Context, query string, params map[string]any) error {
	f.writes = append(f.writes, query)
	f.params = append(f.params, params)
	return f.err
}

func (f *fakeRunner) close(context.Context) error {
	f.closed = true
	return nil
}

func TestNeo4jOracle(t *testing.T) {
	ctx := context.Background()

	t.Run("Convert records into relations", func(t *testing.T) {
		runner := &fakeRunner{rows: []map[string]any{
			{"start": "volcano", "end": "magma", "rel": "/r/Synonym", "weight": 1.0},
			{"start": "lava", "end": "volcano", "rel": "RelatedTo", "weight": int64(2)},
			{"start": "volcano", "end": "ash", "rel": "RelatedTo", "weight": nil},
		}}
		oracle := newNeo4jOracle(runner)

		relations, err := oracle.Lookup(ctx, "volcano")
		require.NoError(t, err)
		assert.Equal(t, []model.Relation{
			{Start: "volcano", End: "magma", Type: model.RelationSynonym, Weight: 1},
			{Start: "lava", End: "volcano", Type: model.RelationRelatedTo, Weight: 2},
			{Start: "volcano", End: "ash", Type: model.RelationRelatedTo, Weight: 1},
		}, relations)
		assert.Equal(t, []map[string]any{{"name": "volcano"}}, runner.reads)

		synonyms, err := oracle.SynonymOf(ctx, "volcano")
		require.NoError(t, err)
		assert.Equal(t, []model.Entity{"magma"}, synonyms.Items())
	})

	t.Run("Reject incomplete records", func(t *testing.T) {
		oracle := newNeo4jOracle(&fakeRunner{rows: []map[string]any{{"start": "volcano", "rel": "Synonym"}}})

		_, err := oracle.Lookup(ctx, "volcano")
		assert.Error(t, err)
	})

	t.Run("Reject unexpected weight types", func(t *testing.T) {
		oracle := newNeo4jOracle(&fakeRunner{rows: []map[string]any{{"start": "a", "end": "b", "rel": "Synonym", "weight": "heavy"}}})

		_, err := oracle.Lookup(ctx, "a")
		assert.Error(t, err)
	})

	t.Run("Wrap query errors", func(t *testing.T) {
		errDown := errors.New("connection refused")
		oracle := newNeo4jOracle(&fakeRunner{err: errDown})

		_, err := oracle.Lookup(ctx, "volcano")
		assert.ErrorIs(t, err, errDown)
		assert.Contains(t, err.Error(), "neo4j lookup")
	})

	t.Run("Seed normalized relations", func(t *testing.T) {
		runner := &fakeRunner{}
		oracle := newNeo4jOracle(runner)

		err := oracle.Seed(ctx, []model.Relation{{Start: "/c/en/volcano/n", End: "Magma", Type: "/r/Synonym", Weight: 1}})
		require.NoError(t, err)
		require.Len(t, runner.writes, 2, "Expected the constraint and the upsert")
		assert.Equal(t, neo4jConstraintQuery, runner.writes[0])
		assert.Equal(t, neo4jUpsertQuery, runner.writes[1])
		assert.Equal(t, []map[string]any{{"start": "volcano", "end": "magma", "rel": "Synonym", "weight": 1.0}}, runner.params[1]["relations"])
	})

	t.Run("Seed without relations only creates the constraint", func(t *testing.T) {
		runner := &fakeRunner{}
		require.NoError(t, newNeo4jOracle(runner).Seed(ctx, nil))
		assert.Len(t, runner.writes, 1)
	})

	t.Run("Close the runner", func(t *testing.T) {
		runner := &fakeRunner{}
		require.NoError(t, newNeo4jOracle(runner).Close(ctx))
		assert.True(t, runner.closed)
	})

	t.Run("Missing uri is a configuration error", func(t *testing.T) {
		_, err := NewNeo4jOracle(ctx, &helper.Neo4jConfiguration{})
		assert.True(t, helper.IsConfigurationError(err))
	})
}
