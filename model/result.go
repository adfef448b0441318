package model

import "strings"

// SelectionStatus reports how the summary selection ended.
type SelectionStatus string

const (
	SelectionOptimal    SelectionStatus = "optimal"
	SelectionFeasible   SelectionStatus = "feasible"
	SelectionInfeasible SelectionStatus = "infeasible"
	SelectionUnbounded  SelectionStatus = "unbounded"
	SelectionNotSolved  SelectionStatus = "not_solved"
	SelectionEmpty      SelectionStatus = "empty" // Nothing to select from
)

// SelectionResult is the extractive summary of one question.
type SelectionResult struct {
	QuestionID string          `json:"question_id"`
	Sentences  []string        `json:"sentences"`
	Objective  float64         `json:"objective"`
	Status     SelectionStatus `json:"status"`
	Length     int             `json:"length"` // Summary length in words
}

// Text joins the selected sentences with single spaces.
func (r *SelectionResult) Text() string {
	return strings.Join(r.Sentences, " ")
}

// ExpansionReport describes how well an expansion matched the answers.
type ExpansionReport struct {
	ExpandedCount     int     `json:"expanded_count"`
	HitCount          int     `json:"hit_count"`
	HitRatio          float64 `json:"hit_ratio"`
	AnswerEntityCount int     `json:"answer_entity_count"`
	SentenceCount     int     `json:"sentence_count"`
	AvgEntities       float64 `json:"avg_entities"`
	HitSentenceCount  int     `json:"hit_sentence_count"`
	SynonymCount      int     `json:"synonym_count"`
}
