package oracle

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore implements both database handler interfaces in memory.
type memoryStore struct {
	assertions []*model.Assertion
	concepts   map[model.Entity]*model.Concept
	neighbors  []*model.Concept
	err        error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{concepts: make(map[model.Entity]*model.Concept)}
}

func (m *memoryStore) InsertAssertion(_ context.Context, a *model.Assertion) error {
	if m.err != nil {
		return m.err
	}
	a.ID = uuid.New()
	a.Start = model.NormalizeEntity(string(a.Start))
	a.End = model.NormalizeEntity(string(a.End))
	a.Relation = a.Relation.Name()
	m.assertions = append(m.assertions, a)
	return nil
}

func (m *memoryStore) DeleteAssertion(context.Context, uuid.UUID) error { return nil }

func (m *memoryStore) SelectAssertion(context.Context, uuid.UUID) (*model.Assertion, error) {
	return nil, sql.ErrNoRows
}

func (m *memoryStore) SelectAssertionsByEntity(_ context.Context, name model.Entity) ([]*model.Assertion, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*model.Assertion
	for _, a := range m.assertions {
		if a.Start == name || a.End == name {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memoryStore) InsertConcept(_ context.Context, c *model.Concept) error {
	c.ID = uuid.New()
	m.concepts[c.Name] = c
	return nil
}

func (m *memoryStore) DeleteConcept(context.Context, uuid.UUID) error { return nil }

func (m *memoryStore) SelectConcept(context.Context, uuid.UUID) (*model.Concept, error) {
	return nil, sql.ErrNoRows
}

func (m *memoryStore) SelectConceptByName(_ context.Context, name model.Entity, _ string) (*model.Concept, error) {
	c, ok := m.concepts[name]
	if !ok {
		return nil, helper.NewError("scan", sql.ErrNoRows)
	}
	return c, nil
}

func (m *memoryStore) SelectConceptsBySimilarity(_ context.Context, _ []float32, _ string, limit int, _ float64) ([]*model.Concept, error) {
	return m.neighbors[:min(limit, len(m.neighbors))], nil
}

func TestPostgres(t *testing.T) {
	ctx := context.Background()
	relations := []model.Relation{
		{Start: "/c/en/volcano", End: "magma", Type: "/r/Synonym", Weight: 1},
		{Start: "magma", End: "lava", Type: model.RelationRelatedTo, Weight: 2},
	}

	t.Run("Import relations with embedded concepts", func(t *testing.T) {
		store := newMemoryStore()
		oracle, err := NewPostgres(store, store, PostgresOptions{}, nil)
		require.NoError(t, err)

		embedded := 0
		err = oracle.Import(ctx, relations, func(text string) ([]float32, error) {
			embedded++
			return []float32{float32(len(text)), 0}, nil
		})
		require.NoError(t, err)
		assert.Len(t, store.assertions, 2)
		assert.Len(t, store.concepts, 3)
		assert.Equal(t, 3, embedded, "Expected one embedding per concept")
		assert.Equal(t, []float32{7, 0}, store.concepts["volcano"].Embedding)
	})

	t.Run("Look up stored assertions", func(t *testing.T) {
		store := newMemoryStore()
		oracle, err := NewPostgres(store, store, PostgresOptions{}, nil)
		require.NoError(t, err)
		require.NoError(t, oracle.Import(ctx, relations, nil))

		related, err := oracle.RelatedTo(ctx, "magma")
		require.NoError(t, err)
		assert.Equal(t, []model.Entity{"volcano", "lava"}, related.Items())
	})

	t.Run("Add embedding neighbors as SimilarTo relations", func(t *testing.T) {
		store := newMemoryStore()
		store.concepts["fire"] = &model.Concept{Name: "fire", Embedding: []float32{1, 0}}
		store.neighbors = []*model.Concept{
			{Name: "fire", Similarity: 1},
			{Name: "flame", Similarity: 0.9},
			{Name: "heat", Similarity: 0.7},
		}
		oracle, err := NewPostgres(store, store, PostgresOptions{SimilarLimit: 1, SimilarThreshold: 0.5}, nil)
		require.NoError(t, err)

		relations, err := oracle.Lookup(ctx, "fire")
		require.NoError(t, err)
		assert.Equal(t, []model.Relation{{Start: "fire", End: "flame", Type: model.RelationSimilarTo, Weight: 0.9}}, relations)

		synonyms, err := oracle.SynonymOf(ctx, "fire")
		require.NoError(t, err)
		assert.Equal(t, []model.Entity{"flame"}, synonyms.Items(), "Expected SimilarTo to count as a synonym")
	})

	t.Run("Unknown concepts have no neighbors", func(t *testing.T) {
		store := newMemoryStore()
		oracle, err := NewPostgres(store, store, PostgresOptions{SimilarLimit: 3}, nil)
		require.NoError(t, err)

		relations, err := oracle.Lookup(ctx, "glacier")
		require.NoError(t, err)
		assert.Empty(t, relations)
	})

	t.Run("Wrap store errors", func(t *testing.T) {
		store := newMemoryStore()
		store.err = errors.New("connection refused")
		oracle, err := NewPostgres(store, store, PostgresOptions{}, nil)
		require.NoError(t, err)

		_, err = oracle.Lookup(ctx, "volcano")
		assert.ErrorIs(t, err, store.err)
		assert.True(t, strings.Contains(err.Error(), "postgres lookup"))
	})

	t.Run("Invalid construction", func(t *testing.T) {
		_, err := NewPostgres(nil, nil, PostgresOptions{}, nil)
		assert.True(t, helper.IsConfigurationError(err))

		_, err = NewPostgres(nil, newMemoryStore(), PostgresOptions{SimilarLimit: 2}, nil)
		assert.True(t, helper.IsConfigurationError(err))
	})
}
