package ilp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/siherrmann/summer/core/scoring"
	"github.com/siherrmann/summer/core/solver"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
)

// State is the stage a Selector has reached. States only move forward.
type State int

const (
	StateInit State = iota
	StateScored
	StateIndexed
	StateFormulated
	StateSolved
	StateDecoded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateScored:
		return "scored"
	case StateIndexed:
		return "indexed"
	case StateFormulated:
		return "formulated"
	case StateSolved:
		return "solved"
	case StateDecoded:
		return "decoded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Selector selects the summary sentences of one question. It is used for a
// single run and is not safe for concurrent use.
type Selector struct {
	name   string
	config model.SummaryConfig
	solver solver.Solver
	length LengthFunc
	logger *slog.Logger

	state       State
	records     []model.SentenceEntityRecord
	hit         *model.HitModel
	index       *model.CandidateIndex
	formulation *Formulation
	solution    *solver.Solution
	result      *model.SelectionResult
}

// NewSelector creates a Selector for the question called name.
func NewSelector(name string, config model.SummaryConfig, s solver.Solver, length LengthFunc, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		name:   name,
		config: config,
		solver: s,
		length: length,
		logger: logger.With(slog.String("question", name)),
		state:  StateInit,
	}
}

// State returns the current state.
func (s *Selector) State() State {
	return s.state
}

// Hit returns the hit model once scored.
func (s *Selector) Hit() *model.HitModel {
	return s.hit
}

// Index returns the candidate index once indexed.
func (s *Selector) Index() *model.CandidateIndex {
	return s.index
}

func (s *Selector) advance(from, to State, trace string) error {
	if s.state != from {
		return helper.NewConfigurationError(trace, "selector is %s, expected %s", s.state, from)
	}
	s.state = to
	return nil
}

func (s *Selector) fail(trace string, err error) error {
	s.state = StateFailed
	return helper.NewError(trace, err)
}

// Score computes the hit model of the expanded entities against the records.
func (s *Selector) Score(expanded *model.WeightedEntities, records []model.SentenceEntityRecord) error {
	if err := s.advance(StateInit, StateScored, "score"); err != nil {
		return err
	}
	s.records = records
	s.hit = scoring.NewScoreModel(s.config.Score, s.logger).Score(expanded, records)
	return nil
}

// Filter builds the candidate index from the scored records.
func (s *Selector) Filter() error {
	if err := s.advance(StateScored, StateIndexed, "index"); err != nil {
		return err
	}
	if s.length == nil {
		return s.fail("index", fmt.Errorf("%w: length function is nil", helper.ErrConfiguration))
	}
	s.index = Index(s.records, s.hit.Hit, s.length, s.config.Index)
	s.logger.Debug("Indexed candidates",
		slog.Int("records", len(s.records)),
		slog.Int("sentences", s.index.NumSentences()),
		slog.Int("entities", s.index.NumEntities()),
	)
	return nil
}

// Formulate builds the integer program over the candidate index.
func (s *Selector) Formulate() error {
	if err := s.advance(StateIndexed, StateFormulated, "formulate"); err != nil {
		return err
	}
	s.formulation = Formulate(s.name, s.index, s.hit.Hit, s.length, s.config.Select)
	return nil
}

// Solve runs the solver. An index without sentences skips the solver.
func (s *Selector) Solve(ctx context.Context) error {
	if err := s.advance(StateFormulated, StateSolved, "solve"); err != nil {
		return err
	}
	if s.index.NumSentences() == 0 {
		return nil
	}
	if s.solver == nil {
		return s.fail("solve", fmt.Errorf("%w: solver is nil", helper.ErrConfiguration))
	}

	solution, err := s.solver.Solve(ctx, s.formulation.Problem)
	if err != nil {
		return s.fail("solve", err)
	}
	s.solution = solution
	return nil
}

// Decode reads the selected sentences from the solution in ascending
// sentence id order. Non optimal solutions give an empty result.
func (s *Selector) Decode() (*model.SelectionResult, error) {
	if err := s.advance(StateSolved, StateDecoded, "decode"); err != nil {
		return nil, err
	}

	result := &model.SelectionResult{QuestionID: s.name, Sentences: []string{}}
	s.result = result
	if s.solution == nil {
		result.Status = model.SelectionEmpty
		return result, nil
	}

	result.Status = selectionStatus(s.solution.Status)
	if result.Status != model.SelectionOptimal && result.Status != model.SelectionFeasible {
		s.logger.Warn("Solver found no solution, emitting empty summary", slog.String("status", string(s.solution.Status)))
		return result, nil
	}

	var selected []int
	for _, v := range s.formulation.Problem.Variables {
		prefix, id, err := parseVar(v.Name)
		if err != nil {
			return nil, s.fail("decode", err)
		}
		if prefix != sentencePrefix {
			continue
		}
		if id >= s.index.NumSentences() {
			return nil, s.fail("decode", fmt.Errorf("%w: sentence variable %q out of range", helper.ErrConfiguration, v.Name))
		}
		if s.solution.Values[v.Name] > 0.5 {
			selected = append(selected, id)
		}
	}
	sort.Ints(selected)

	for _, id := range selected {
		result.Sentences = append(result.Sentences, s.index.SentenceByID[id])
		result.Length += s.formulation.Lengths[id]
	}
	result.Objective = s.solution.Objective

	s.logger.Info("Selected summary sentences",
		slog.Int("selected", len(selected)),
		slog.Int("candidates", s.index.NumSentences()),
		slog.Int("length", result.Length),
		slog.String("status", string(result.Status)),
	)
	return result, nil
}

// Run executes every remaining state in order.
func (s *Selector) Run(ctx context.Context, expanded *model.WeightedEntities, records []model.SentenceEntityRecord) (*model.SelectionResult, error) {
	if err := s.Score(expanded, records); err != nil {
		return nil, err
	}
	if err := s.Filter(); err != nil {
		return nil, err
	}
	if err := s.Formulate(); err != nil {
		return nil, err
	}
	if err := s.Solve(ctx); err != nil {
		return nil, err
	}
	return s.Decode()
}

func parseVar(name string) (string, int, error) {
	if len(name) < 2 {
		return "", 0, fmt.Errorf("%w: malformed variable %q", helper.ErrConfiguration, name)
	}
	prefix := name[:1]
	if prefix != sentencePrefix && prefix != entityPrefix {
		return "", 0, fmt.Errorf("%w: unknown variable prefix in %q", helper.ErrConfiguration, name)
	}
	id, err := strconv.Atoi(name[1:])
	if err != nil || id < 0 {
		return "", 0, fmt.Errorf("%w: malformed variable %q", helper.ErrConfiguration, name)
	}
	return prefix, id, nil
}

func selectionStatus(status solver.Status) model.SelectionStatus {
	switch status {
	case solver.StatusOptimal:
		return model.SelectionOptimal
	case solver.StatusFeasible:
		return model.SelectionFeasible
	case solver.StatusInfeasible:
		return model.SelectionInfeasible
	case solver.StatusUnbounded:
		return model.SelectionUnbounded
	default:
		return model.SelectionNotSolved
	}
}

// WriteSummary writes the selected sentences joined by single spaces.
func WriteSummary(w io.Writer, result *model.SelectionResult) error {
	if _, err := io.WriteString(w, strings.TrimSpace(result.Text())); err != nil {
		return helper.NewError("write summary", err)
	}
	return nil
}
