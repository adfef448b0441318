package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/siherrmann/summer/helper"
)

// Solver solves mixed integer linear problems.
type Solver interface {
	Solve(ctx context.Context, problem *Problem) (*Solution, error)
}

// Sense is the optimization direction.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

// Kind is the domain of a variable.
type Kind int

const (
	Continuous Kind = iota
	Integer
	Binary
)

// Op is the comparison of a constraint.
type Op int

const (
	LessEqual Op = iota
	GreaterEqual
	Equal
)

func (o Op) String() string {
	switch o {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Variable is a named decision variable with bounds. Upper may be +Inf.
type Variable struct {
	Name  string
	Kind  Kind
	Lower float64
	Upper float64
}

// Term is one coefficient of a constraint.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is sum(Terms) Op RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Op    Op
	RHS   float64
}

// Problem is a linear objective over bounded variables with linear constraints.
type Problem struct {
	Name        string
	Sense       Sense
	Variables   []Variable
	Objective   []float64
	Constraints []Constraint

	index map[string]int
}

// NewProblem creates an empty problem.
func NewProblem(name string, sense Sense) *Problem {
	return &Problem{Name: name, Sense: sense, index: make(map[string]int)}
}

// AddVariable adds a variable and returns its index. Binary variables are
// bounded to [0, 1] regardless of the given bounds.
func (p *Problem) AddVariable(name string, kind Kind, lower, upper float64) int {
	if kind == Binary {
		lower, upper = 0, 1
	}
	if p.index == nil {
		p.index = make(map[string]int)
	}
	p.Variables = append(p.Variables, Variable{Name: name, Kind: kind, Lower: lower, Upper: upper})
	p.Objective = append(p.Objective, 0)
	p.index[name] = len(p.Variables) - 1
	return len(p.Variables) - 1
}

// VariableIndex returns the index of the variable called name.
func (p *Problem) VariableIndex(name string) (int, bool) {
	i, ok := p.index[name]
	return i, ok
}

// SetObjective sets the objective coefficient of variable v.
func (p *Problem) SetObjective(v int, coef float64) {
	p.Objective[v] = coef
}

// AddConstraint appends a constraint.
func (p *Problem) AddConstraint(name string, terms []Term, op Op, rhs float64) {
	p.Constraints = append(p.Constraints, Constraint{Name: name, Terms: terms, Op: op, RHS: rhs})
}

// Validate checks that the problem is well formed.
func (p *Problem) Validate() error {
	if len(p.Objective) != len(p.Variables) {
		return helper.NewConfigurationError("validate problem", "objective has %d coefficients for %d variables", len(p.Objective), len(p.Variables))
	}
	seen := make(map[string]bool, len(p.Variables))
	for _, v := range p.Variables {
		if seen[v.Name] {
			return helper.NewConfigurationError("validate problem", "duplicate variable %q", v.Name)
		}
		seen[v.Name] = true
		if math.IsNaN(v.Lower) || math.IsInf(v.Lower, 0) || math.IsNaN(v.Upper) {
			return helper.NewConfigurationError("validate problem", "variable %q has invalid bounds", v.Name)
		}
	}
	for _, c := range p.Constraints {
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(p.Variables) {
				return helper.NewConfigurationError("validate problem", "constraint %q references unknown variable %d", c.Name, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return helper.NewConfigurationError("validate problem", "constraint %q has a non finite coefficient", c.Name)
			}
		}
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return helper.NewConfigurationError("validate problem", "constraint %q has a non finite bound", c.Name)
		}
	}
	for i, coef := range p.Objective {
		if math.IsNaN(coef) || math.IsInf(coef, 0) {
			return helper.NewConfigurationError("validate problem", "objective coefficient of %q is not finite", p.Variables[i].Name)
		}
	}
	return nil
}

// Status is the outcome of a solve.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusNotSolved  Status = "not_solved"
)

// Solution holds the variable values by name.
type Solution struct {
	Status    Status
	Objective float64
	Values    map[string]float64
	Nodes     int // Branch and bound nodes explored
}
