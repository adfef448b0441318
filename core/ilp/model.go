package ilp

import (
	"fmt"

	"github.com/siherrmann/summer/core/solver"
	"github.com/siherrmann/summer/model"
)

const (
	sentencePrefix = "y"
	entityPrefix   = "x"
)

func sentenceVar(id int) string { return fmt.Sprintf("%s%d", sentencePrefix, id) }
func entityVar(id int) string   { return fmt.Sprintf("%s%d", entityPrefix, id) }

// Formulation is the integer program of one run together with the weights
// it was built from.
type Formulation struct {
	Problem         *solver.Problem
	SentenceWeights []float64
	EntityWeights   []float64
	Lengths         []int
}

// Formulate builds the selection program over an index:
//
//	maximize  sum_e score(e) x_e + sum_s (bonus |ents(s)| + sum score(ents(s)) / 2) y_s
//	s.t.      sum_s len(s) y_s <= wordLimit
//	          sum_s len(s) y_s >= minWords            (when enabled)
//	          sum_s OCC[e][s] y_s - x_e = 0           for every entity e
//	          y_s binary, x_e integer in [0, maxEntityCount]
//
// Sentence variables are declared first so branching settles sentence
// choices before entity counts.
func Formulate(name string, index *model.CandidateIndex, hit *model.WeightedEntities, length LengthFunc, config model.SelectConfig) *Formulation {
	f := &Formulation{
		Problem:         solver.NewProblem(name, solver.Maximize),
		SentenceWeights: make([]float64, index.NumSentences()),
		EntityWeights:   make([]float64, index.NumEntities()),
		Lengths:         make([]int, index.NumSentences()),
	}
	p := f.Problem

	sentenceVars := make([]int, index.NumSentences())
	lengthTerms := make([]solver.Term, 0, index.NumSentences())
	total := 0
	for s, sentence := range index.SentenceByID {
		scoreSum := 0.0
		for _, e := range index.SentenceEntities[s] {
			score, _ := hit.Get(e)
			scoreSum += score
		}
		f.SentenceWeights[s] = config.EntityBonus*float64(len(index.SentenceEntities[s])) + scoreSum/2
		f.Lengths[s] = length(sentence)
		total += f.Lengths[s]

		sentenceVars[s] = p.AddVariable(sentenceVar(s), solver.Binary, 0, 1)
		p.SetObjective(sentenceVars[s], f.SentenceWeights[s])
		lengthTerms = append(lengthTerms, solver.Term{Var: sentenceVars[s], Coef: float64(f.Lengths[s])})
	}

	for e, entity := range index.EntityByID {
		f.EntityWeights[e], _ = hit.Get(entity)
		x := p.AddVariable(entityVar(e), solver.Integer, 0, float64(config.MaxEntityCount))
		p.SetObjective(x, f.EntityWeights[e])

		terms := []solver.Term{{Var: x, Coef: -1}}
		for s, occurs := range index.Occurrence[e] {
			if occurs == 1 {
				terms = append(terms, solver.Term{Var: sentenceVars[s], Coef: 1})
			}
		}
		p.AddConstraint("coverage_"+entityVar(e), terms, solver.Equal, 0)
	}

	if len(lengthTerms) > 0 {
		p.AddConstraint("word_limit", lengthTerms, solver.LessEqual, float64(config.WordLimit))
		// A lower bound above the total candidate length could never be met.
		if config.MinWords > 0 && total >= config.MinWords {
			p.AddConstraint("min_words", lengthTerms, solver.GreaterEqual, float64(config.MinWords))
		}
	}
	return f
}
