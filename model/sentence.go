package model

// SentenceEntityRecord pairs an answer sentence with the entities found in it.
type SentenceEntityRecord struct {
	Sentence string
	Entities *EntitySet
}

// HitModel is the scored view of the expanded entities against the corpus.
// Hit holds the scores of the entities used for indexing, in encounter order.
type HitModel struct {
	Hit       *WeightedEntities
	HitFreq   map[Entity]int
	UnhitFreq map[Entity]int
}

// CandidateIndex is the filtered, deduplicated set of candidate sentences and
// the entity by sentence occurrence matrix built from them.
type CandidateIndex struct {
	EntityIndex   map[Entity]int
	EntityByID    []Entity
	SentenceIndex map[string]int
	SentenceByID  []string // Trimmed sentence text by id

	SentenceEntities [][]Entity // Hit entities of SentenceByID[i], in sentence order

	// Occurrence[e][s] is 1 iff entity e appears in sentence s.
	Occurrence [][]int
}

// NumEntities returns the number of indexed entities.
func (c *CandidateIndex) NumEntities() int {
	return len(c.EntityByID)
}

// NumSentences returns the number of indexed sentences.
func (c *CandidateIndex) NumSentences() int {
	return len(c.SentenceByID)
}
