package pipeline

import (
	"context"
	"strings"
	"unicode"

	"github.com/siherrmann/summer/model"
)

// Vocabulary reports whether the knowledge graph knows a concept.
type Vocabulary interface {
	Has(ctx context.Context, e model.Entity) (bool, error)
}

// OracleVocabulary treats every entity with at least one relation as known.
type OracleVocabulary struct {
	Oracle RelationOracle
}

// Has looks e up in the oracle.
func (v OracleVocabulary) Has(ctx context.Context, e model.Entity) (bool, error) {
	relations, err := v.Oracle.Lookup(ctx, e)
	if err != nil {
		return false, err
	}
	return len(relations) > 0, nil
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "has": {}, "have": {}, "how": {},
	"i": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "my": {}, "no": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "so": {}, "such": {}, "that": {}, "the": {},
	"their": {}, "them": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// NgramEntityFinder matches word n-grams of up to maxN words against the
// vocabulary, preferring the longest match at every position. N-grams made
// only of stopwords are never looked up.
func NgramEntityFinder(vocabulary Vocabulary, maxN int) EntityFinder {
	if maxN < 1 {
		maxN = 1
	}
	return func(ctx context.Context, text string) (*model.EntitySet, error) {
		words := tokenizeWords(text)
		entities := model.NewEntitySet()

		for i := 0; i < len(words); {
			matched := 0
			for n := min(maxN, len(words)-i); n >= 1; n-- {
				gram := words[i : i+n]
				if allStopwords(gram) {
					continue
				}
				ok, err := vocabulary.Has(ctx, model.NormalizeEntity(strings.Join(gram, " ")))
				if err != nil {
					return nil, err
				}
				if ok {
					entities.Add(model.NormalizeEntity(strings.Join(gram, " ")))
					matched = n
					break
				}
			}
			if matched == 0 {
				matched = 1
			}
			i += matched
		}
		return entities, nil
	}
}

func tokenizeWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
	words := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}

func allStopwords(words []string) bool {
	for _, w := range words {
		if _, ok := stopwords[w]; !ok {
			return false
		}
	}
	return true
}
