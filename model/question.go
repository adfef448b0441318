package model

import "strings"

// Answer is one candidate answer text of a question.
type Answer struct {
	ID      string  `json:"id,omitempty" yaml:"id,omitempty"`
	Content string  `json:"content" yaml:"content"`
	Score   float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Author  string  `json:"author,omitempty" yaml:"author,omitempty"`
}

// Question is the unit of work: a title to summarize for and its answers.
type Question struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Narrative string   `json:"narrative,omitempty" yaml:"narrative,omitempty"`
	Author    string   `json:"author,omitempty" yaml:"author,omitempty"`
	Count     int      `json:"count,omitempty" yaml:"count,omitempty"`
	Answers   []Answer `json:"answers" yaml:"answers"`
}

// Nbest returns the answer texts in order.
func (q *Question) Nbest() []string {
	out := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		out = append(out, a.Content)
	}
	return out
}

// TotalWords counts the whitespace separated words of all answers.
func (q *Question) TotalWords() int {
	total := 0
	for _, a := range q.Answers {
		total += len(strings.Fields(a.Content))
	}
	return total
}

// OutputName is the file name a summary of the question is written under.
func (q *Question) OutputName() string {
	if q.Author != "" {
		return q.Author
	}
	return q.ID
}

// QuestionCorpus is the on-disk format of a batch of questions.
type QuestionCorpus struct {
	Questions []Question `json:"questions" yaml:"questions"`
}
