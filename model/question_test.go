package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestQuestion(t *testing.T) {
	q := &Question{
		ID:    "q1",
		Title: "What causes volcanic eruptions?",
		Answers: []Answer{
			{Content: "Magma rises through the crust."},
			{Content: "Pressure builds up."},
		},
	}

	t.Run("Nbest returns answer texts in order", func(t *testing.T) {
		assert.Equal(t, []string{"Magma rises through the crust.", "Pressure builds up."}, q.Nbest())
	})

	t.Run("Total words counts all answers", func(t *testing.T) {
		assert.Equal(t, 8, q.TotalWords())
	})

	t.Run("Output name prefers the author", func(t *testing.T) {
		assert.Equal(t, "q1", q.OutputName())

		withAuthor := *q
		withAuthor.Author = "D301"
		assert.Equal(t, "D301", withAuthor.OutputName())
	})

	t.Run("Decode corpus from yaml", func(t *testing.T) {
		raw := `
questions:
  - id: q1
    title: Why do volcanoes erupt?
    answers:
      - content: Magma rises.
        score: 2
      - content: Gas expands.
`
		var corpus QuestionCorpus
		require.NoError(t, yaml.Unmarshal([]byte(raw), &corpus))
		require.Len(t, corpus.Questions, 1)
		assert.Equal(t, "Why do volcanoes erupt?", corpus.Questions[0].Title)
		assert.Len(t, corpus.Questions[0].Answers, 2)
		assert.Equal(t, 2.0, corpus.Questions[0].Answers[0].Score)
	})
}

func TestRelationType(t *testing.T) {
	t.Run("Synonym family", func(t *testing.T) {
		assert.True(t, RelationSynonym.IsSynonym())
		assert.True(t, RelationType("/r/FormOf").IsSynonym(), "Expected uri prefix to be ignored")
		assert.False(t, RelationRelatedTo.IsSynonym())
	})

	t.Run("Negated relations", func(t *testing.T) {
		assert.True(t, RelationNotDesires.IsNegated())
		assert.True(t, RelationType("/r/NotCapableOf").IsNegated())
		assert.False(t, RelationRelatedTo.IsNegated())
	})

	t.Run("Neighbor of either endpoint", func(t *testing.T) {
		r := Relation{Start: "volcano", End: "magma", Type: RelationRelatedTo, Weight: 1}

		n, ok := r.Neighbor("volcano")
		assert.True(t, ok)
		assert.Equal(t, Entity("magma"), n)

		n, ok = r.Neighbor("magma")
		assert.True(t, ok)
		assert.Equal(t, Entity("volcano"), n)

		_, ok = r.Neighbor("lava")
		assert.False(t, ok)
	})
}
