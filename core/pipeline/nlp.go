package pipeline

import (
	"strings"
)

// SimpleNLP splits sentences on terminal punctuation followed by a space and
// measures them in whitespace separated words.
type SimpleNLP struct{}

// SentenceTokenize splits text into trimmed, non empty sentences.
func (SimpleNLP) SentenceTokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "! ", "!|")
	text = strings.ReplaceAll(text, "? ", "?|")
	text = strings.ReplaceAll(text, ". ", ".|")

	var sentences []string
	for _, s := range strings.Split(text, "|") {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// SentenceLength counts the words of a sentence.
func (SimpleNLP) SentenceLength(sentence string) int {
	return len(strings.Fields(sentence))
}

// WordLength is SentenceLength as a plain function.
func WordLength(sentence string) int {
	return SimpleNLP{}.SentenceLength(sentence)
}
