package ilp

import (
	"strings"

	"github.com/siherrmann/summer/model"
)

// LengthFunc measures a sentence, usually in words.
type LengthFunc func(sentence string) int

// Index filters the records down to candidate sentences and builds the
// entity by sentence occurrence matrix. A sentence survives when at least
// MinOverlap hit entities occur in it and its length lies within
// [MinLength, MaxLength]. Duplicate sentences keep their first occurrence.
// Every hit entity gets an id in hit order, sentences get ids in encounter
// order.
func Index(records []model.SentenceEntityRecord, hit *model.WeightedEntities, length LengthFunc, config model.IndexConfig) *model.CandidateIndex {
	index := &model.CandidateIndex{
		EntityIndex:   make(map[model.Entity]int),
		SentenceIndex: make(map[string]int),
	}

	for _, e := range hit.Keys() {
		index.EntityIndex[e] = len(index.EntityByID)
		index.EntityByID = append(index.EntityByID, e)
	}

	for _, record := range records {
		sentence := strings.TrimSpace(record.Sentence)
		if _, ok := index.SentenceIndex[sentence]; ok {
			continue
		}

		var overlap []model.Entity
		for _, e := range record.Entities.Items() {
			if hit.Has(e) {
				overlap = append(overlap, e)
			}
		}
		if len(overlap) < config.MinOverlap {
			continue
		}
		if l := length(sentence); l < config.MinLength || l > config.MaxLength {
			continue
		}

		index.SentenceIndex[sentence] = len(index.SentenceByID)
		index.SentenceByID = append(index.SentenceByID, sentence)
		index.SentenceEntities = append(index.SentenceEntities, overlap)
	}

	index.Occurrence = make([][]int, index.NumEntities())
	for e := range index.Occurrence {
		index.Occurrence[e] = make([]int, index.NumSentences())
	}
	for s, entities := range index.SentenceEntities {
		for _, e := range entities {
			index.Occurrence[index.EntityIndex[e]][s] = 1
		}
	}
	return index
}
