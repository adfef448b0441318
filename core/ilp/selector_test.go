package ilp

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/core/solver"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSolver struct {
	solution *solver.Solution
	err      error
	calls    int
}

func (m *mockSolver) Solve(ctx context.Context, problem *solver.Problem) (*solver.Solution, error) {
	m.calls++
	return m.solution, m.err
}

func volcanoRecords() []model.SentenceEntityRecord {
	return []model.SentenceEntityRecord{
		record("Magma rises through the crust.", "magma", "crust"),
		record("Pressure builds inside the volcano.", "pressure", "volcano"),
		record("Eruptions release ash and gas.", "eruption", "volcano"),
	}
}

func selectorConfig(wordLimit int) model.SummaryConfig {
	config := model.DefaultSparseConfig()
	config.Index = model.IndexConfig{MinOverlap: 1, MinLength: 1, MaxLength: 50}
	config.Select.WordLimit = wordLimit
	config.Select.MinWords = 0
	return config
}

func TestSelector(t *testing.T) {
	ctx := context.Background()
	expanded := model.UniformWeights(model.NewEntitySet("volcano", "eruption", "magma"), 1)

	t.Run("Select the densest sentences within the word limit", func(t *testing.T) {
		selector := NewSelector("volcano", selectorConfig(10), solver.NewBranchAndBound(0, nil), pipeline.WordLength, nil)

		result, err := selector.Run(ctx, expanded, volcanoRecords())
		require.NoError(t, err)
		assert.Equal(t, StateDecoded, selector.State())
		assert.Equal(t, model.SelectionOptimal, result.Status)
		assert.Equal(t, []string{"Pressure builds inside the volcano.", "Eruptions release ash and gas."}, result.Sentences)
		assert.Equal(t, 10, result.Length)
		assert.LessOrEqual(t, result.Length, 10)
		assert.Contains(t, result.Sentences, "Eruptions release ash and gas.")
	})

	t.Run("Length stays within the lower and upper bound", func(t *testing.T) {
		tests := []struct {
			name      string
			wordLimit int
			minWords  int
			length    int
		}{
			{"Lower bound forces every sentence", 15, 11, 15},
			{"Lower bound below the optimum", 12, 6, 10},
			{"Lower bound equal to the limit", 10, 10, 10},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := selectorConfig(tt.wordLimit)
				config.Select.MinWords = tt.minWords
				selector := NewSelector("bounds", config, solver.NewBranchAndBound(0, nil), pipeline.WordLength, nil)

				result, err := selector.Run(ctx, expanded, volcanoRecords())
				require.NoError(t, err)
				assert.Equal(t, model.SelectionOptimal, result.Status)
				assert.GreaterOrEqual(t, result.Length, tt.minWords)
				assert.LessOrEqual(t, result.Length, tt.wordLimit)
				assert.Equal(t, tt.length, result.Length)
			})
		}
	})

	t.Run("Selection is deterministic", func(t *testing.T) {
		first, err := NewSelector("volcano", selectorConfig(10), solver.NewBranchAndBound(0, nil), pipeline.WordLength, nil).Run(ctx, expanded, volcanoRecords())
		require.NoError(t, err)
		second, err := NewSelector("volcano", selectorConfig(10), solver.NewBranchAndBound(0, nil), pipeline.WordLength, nil).Run(ctx, expanded, volcanoRecords())
		require.NoError(t, err)

		assert.Equal(t, first.Sentences, second.Sentences)
	})

	t.Run("Entity counts match the selected sentences", func(t *testing.T) {
		selector := NewSelector("volcano", selectorConfig(10), solver.NewBranchAndBound(0, nil), pipeline.WordLength, nil)
		_, err := selector.Run(ctx, expanded, volcanoRecords())
		require.NoError(t, err)

		index := selector.Index()
		for e := range index.EntityByID {
			covered := 0.0
			for s, occurs := range index.Occurrence[e] {
				covered += float64(occurs) * selector.solution.Values[sentenceVar(s)]
			}
			assert.InDelta(t, covered, selector.solution.Values[entityVar(e)], 1e-9)
		}
	})

	t.Run("Empty answers give an empty summary", func(t *testing.T) {
		mock := &mockSolver{}
		selector := NewSelector("empty", selectorConfig(10), mock, pipeline.WordLength, nil)

		result, err := selector.Run(ctx, expanded, nil)
		require.NoError(t, err)
		assert.Equal(t, model.SelectionEmpty, result.Status)
		assert.Empty(t, result.Sentences)
		assert.Equal(t, 0, mock.calls, "Expected the solver to be skipped")
	})

	t.Run("Non optimal status gives an empty summary", func(t *testing.T) {
		mock := &mockSolver{solution: &solver.Solution{Status: solver.StatusInfeasible}}
		selector := NewSelector("infeasible", selectorConfig(10), mock, pipeline.WordLength, nil)

		result, err := selector.Run(ctx, expanded, volcanoRecords())
		require.NoError(t, err)
		assert.Equal(t, model.SelectionInfeasible, result.Status)
		assert.Empty(t, result.Sentences)
	})

	t.Run("Solver errors fail the run", func(t *testing.T) {
		mock := &mockSolver{err: errors.New("solver crashed")}
		selector := NewSelector("broken", selectorConfig(10), mock, pipeline.WordLength, nil)

		_, err := selector.Run(ctx, expanded, volcanoRecords())
		require.Error(t, err)
		assert.Equal(t, StateFailed, selector.State())

		_, err = selector.Decode()
		assert.True(t, helper.IsConfigurationError(err), "Expected a failed selector to reject further calls")
	})

	t.Run("Out of order calls are rejected", func(t *testing.T) {
		selector := NewSelector("order", selectorConfig(10), &mockSolver{}, pipeline.WordLength, nil)

		err := selector.Formulate()
		assert.True(t, helper.IsConfigurationError(err))
		assert.Equal(t, StateInit, selector.State())

		require.NoError(t, selector.Score(expanded, volcanoRecords()))
		err = selector.Score(expanded, volcanoRecords())
		assert.True(t, helper.IsConfigurationError(err), "Expected no backward transition")
		assert.Equal(t, StateScored, selector.State())
	})

	t.Run("Unknown variable prefix is a configuration error", func(t *testing.T) {
		mock := &mockSolver{solution: &solver.Solution{Status: solver.StatusOptimal, Values: map[string]float64{}}}
		selector := NewSelector("prefix", selectorConfig(10), mock, pipeline.WordLength, nil)
		require.NoError(t, selector.Score(expanded, volcanoRecords()))
		require.NoError(t, selector.Filter())
		require.NoError(t, selector.Formulate())
		selector.formulation.Problem.AddVariable("z0", solver.Binary, 0, 1)
		require.NoError(t, selector.Solve(ctx))

		_, err := selector.Decode()
		assert.True(t, helper.IsConfigurationError(err))
		assert.Equal(t, StateFailed, selector.State())
	})
}

func TestParseVar(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		prefix string
		id     int
		valid  bool
	}{
		{"Sentence variable", "y12", "y", 12, true},
		{"Entity variable", "x0", "x", 0, true},
		{"Unknown prefix", "z3", "", 0, false},
		{"Missing id", "y", "", 0, false},
		{"Malformed id", "yab", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, id, err := parseVar(tt.input)
			if !tt.valid {
				assert.True(t, helper.IsConfigurationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestWriteSummary(t *testing.T) {
	t.Run("Join sentences with single spaces", func(t *testing.T) {
		var buf bytes.Buffer
		result := &model.SelectionResult{Sentences: []string{"Pressure builds inside the volcano.", "Eruptions release ash and gas."}}

		require.NoError(t, WriteSummary(&buf, result))
		assert.Equal(t, "Pressure builds inside the volcano. Eruptions release ash and gas.", buf.String())
	})

	t.Run("Empty result writes nothing", func(t *testing.T) {
		var buf bytes.Buffer

		require.NoError(t, WriteSummary(&buf, &model.SelectionResult{}))
		assert.Equal(t, 0, buf.Len())
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "init", StateInit.String())
	assert.Equal(t, "decoded", StateDecoded.String())
	assert.Equal(t, "State(42)", State(42).String())
}
