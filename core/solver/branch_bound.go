package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/siherrmann/summer/helper"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const (
	defaultMaxNodes       = 5000
	defaultTolerance      = 1e-10
	defaultIntegralityTol = 1e-6
)

var errRelaxationSingular = errors.New("relaxation has linearly dependent constraints")

// BranchAndBound solves problems by depth first branch and bound over LP
// relaxations solved with the simplex method.
type BranchAndBound struct {
	MaxNodes       int     // Nodes explored before giving up, <= 0 uses the default
	Tolerance      float64 // Simplex tolerance
	IntegralityTol float64 // Distance to the nearest integer treated as integral
	logger         *slog.Logger
}

// NewBranchAndBound creates a solver exploring at most maxNodes nodes.
func NewBranchAndBound(maxNodes int, logger *slog.Logger) *BranchAndBound {
	if maxNodes <= 0 {
		maxNodes = defaultMaxNodes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BranchAndBound{
		MaxNodes:       maxNodes,
		Tolerance:      defaultTolerance,
		IntegralityTol: defaultIntegralityTol,
		logger:         logger,
	}
}

type node struct {
	lower []float64
	upper []float64
}

// Solve returns the best integral solution found. The status is Optimal when
// the search tree was exhausted and Feasible when the node limit stopped it
// after an incumbent was found.
func (b *BranchAndBound) Solve(ctx context.Context, problem *Problem) (*Solution, error) {
	if problem == nil {
		return nil, helper.NewConfigurationError("solve", "problem is nil")
	}
	if err := problem.Validate(); err != nil {
		return nil, err
	}

	n := len(problem.Variables)
	root := node{lower: make([]float64, n), upper: make([]float64, n)}
	for i, v := range problem.Variables {
		root.lower[i], root.upper[i] = v.Lower, v.Upper
		if v.Kind != Continuous {
			root.lower[i] = math.Ceil(v.Lower - b.IntegralityTol)
			root.upper[i] = math.Floor(v.Upper + b.IntegralityTol)
		}
	}

	var incumbent []float64
	incumbentObjective := 0.0
	nodes := 0
	incomplete := false
	stack := []node{root}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, helper.NewError("solve", err)
		}
		if nodes >= b.MaxNodes {
			incomplete = true
			break
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		objective, values, err := b.relax(problem, current.lower, current.upper)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			continue
		case errors.Is(err, lp.ErrUnbounded):
			return &Solution{Status: StatusUnbounded, Nodes: nodes}, nil
		case err != nil:
			b.logger.Warn("Skipping node with unsolvable relaxation", slog.String("problem", problem.Name), slog.String("error", err.Error()))
			incomplete = true
			continue
		}

		if incumbent != nil && !b.improves(problem.Sense, objective, incumbentObjective) {
			continue
		}

		branch := b.fractional(problem, values)
		if branch < 0 {
			for i, v := range problem.Variables {
				if v.Kind != Continuous {
					values[i] = math.Round(values[i])
				}
			}
			incumbent = values
			incumbentObjective = evaluate(problem, values)
			continue
		}

		down := node{lower: clone(current.lower), upper: clone(current.upper)}
		down.upper[branch] = math.Floor(values[branch])
		up := node{lower: clone(current.lower), upper: clone(current.upper)}
		up.lower[branch] = math.Ceil(values[branch])
		// Up is explored first.
		stack = append(stack, down, up)
	}

	b.logger.Debug("Branch and bound finished",
		slog.String("problem", problem.Name),
		slog.Int("nodes", nodes),
		slog.Bool("incomplete", incomplete),
		slog.Bool("found", incumbent != nil),
	)

	if incumbent == nil {
		if incomplete {
			return &Solution{Status: StatusNotSolved, Nodes: nodes}, nil
		}
		return &Solution{Status: StatusInfeasible, Nodes: nodes}, nil
	}

	solution := &Solution{
		Status:    StatusOptimal,
		Objective: incumbentObjective,
		Values:    make(map[string]float64, n),
		Nodes:     nodes,
	}
	if incomplete {
		solution.Status = StatusFeasible
	}
	for i, v := range problem.Variables {
		solution.Values[v.Name] = incumbent[i]
	}
	return solution, nil
}

func (b *BranchAndBound) improves(sense Sense, candidate, incumbent float64) bool {
	if sense == Minimize {
		return candidate < incumbent-b.IntegralityTol
	}
	return candidate > incumbent+b.IntegralityTol
}

// fractional returns the lowest index integer variable with a fractional
// value, or -1.
func (b *BranchAndBound) fractional(problem *Problem, values []float64) int {
	for i, v := range problem.Variables {
		if v.Kind == Continuous {
			continue
		}
		if math.Abs(values[i]-math.Round(values[i])) > b.IntegralityTol {
			return i
		}
	}
	return -1
}

// relax solves the LP relaxation with the given bounds. Variables are shifted
// by their lower bound, fixed and unconstrained ones are removed and every
// inequality gets a slack column so the problem fits the standard form
// minimize c'x s.t. Ax = b, x >= 0.
func (b *BranchAndBound) relax(problem *Problem, lower, upper []float64) (float64, []float64, error) {
	n := len(problem.Variables)
	for i := 0; i < n; i++ {
		if lower[i] > upper[i]+b.IntegralityTol {
			return 0, nil, lp.ErrInfeasible
		}
	}
	fixed := make([]bool, n)
	for i := 0; i < n; i++ {
		fixed[i] = upper[i]-lower[i] <= b.IntegralityTol
	}

	type row struct {
		coefs map[int]float64
		op    Op
		rhs   float64
	}
	var rows []row
	for _, c := range problem.Constraints {
		r := row{coefs: make(map[int]float64), op: c.Op, rhs: c.RHS}
		for _, t := range c.Terms {
			r.rhs -= t.Coef * lower[t.Var]
			if !fixed[t.Var] {
				r.coefs[t.Var] += t.Coef
			}
		}
		for v, coef := range r.coefs {
			if coef == 0 {
				delete(r.coefs, v)
			}
		}
		if len(r.coefs) == 0 {
			if !satisfied(0, r.op, r.rhs, b.IntegralityTol) {
				return 0, nil, lp.ErrInfeasible
			}
			continue
		}
		rows = append(rows, r)
	}
	for i := 0; i < n; i++ {
		if !fixed[i] && !math.IsInf(upper[i], 1) {
			rows = append(rows, row{coefs: map[int]float64{i: 1}, op: LessEqual, rhs: upper[i] - lower[i]})
		}
	}

	sign := 1.0
	if problem.Sense == Maximize {
		sign = -1
	}

	// Columns of used variables, then one slack per inequality.
	used := make([]bool, n)
	for _, r := range rows {
		for v := range r.coefs {
			used[v] = true
		}
	}
	column := make([]int, n)
	columns := 0
	for i := 0; i < n; i++ {
		column[i] = -1
		if fixed[i] || !used[i] {
			if !fixed[i] && sign*problem.Objective[i] < 0 {
				return 0, nil, lp.ErrUnbounded
			}
			continue
		}
		column[i] = columns
		columns++
	}
	structural := columns
	for _, r := range rows {
		if r.op != Equal {
			columns++
		}
	}

	values := clone(lower)
	if len(rows) == 0 {
		return evaluate(problem, values), values, nil
	}
	if len(rows) > columns {
		return 0, nil, errRelaxationSingular
	}

	c := make([]float64, columns)
	for i := 0; i < n; i++ {
		if column[i] >= 0 {
			c[column[i]] = sign * problem.Objective[i]
		}
	}
	A := mat.NewDense(len(rows), columns, nil)
	rhs := make([]float64, len(rows))
	slack := structural
	for k, r := range rows {
		for v, coef := range r.coefs {
			A.Set(k, column[v], coef)
		}
		switch r.op {
		case LessEqual:
			A.Set(k, slack, 1)
			slack++
		case GreaterEqual:
			A.Set(k, slack, -1)
			slack++
		}
		rhs[k] = r.rhs
		if rhs[k] < 0 {
			for j := 0; j < columns; j++ {
				A.Set(k, j, -A.At(k, j))
			}
			rhs[k] = -rhs[k]
		}
	}

	_, x, err := lp.Simplex(c, A, rhs, b.Tolerance, nil)
	if err != nil {
		if errors.Is(err, lp.ErrSingular) {
			return 0, nil, fmt.Errorf("%w: %v", errRelaxationSingular, err)
		}
		return 0, nil, err
	}
	for i := 0; i < n; i++ {
		if column[i] >= 0 {
			values[i] = lower[i] + x[column[i]]
		}
	}
	return evaluate(problem, values), values, nil
}

func satisfied(lhs float64, op Op, rhs, tol float64) bool {
	switch op {
	case LessEqual:
		return lhs <= rhs+tol
	case GreaterEqual:
		return lhs >= rhs-tol
	default:
		return math.Abs(lhs-rhs) <= tol
	}
}

func evaluate(problem *Problem, values []float64) float64 {
	objective := 0.0
	for i, coef := range problem.Objective {
		objective += coef * values[i]
	}
	return objective
}

func clone(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
