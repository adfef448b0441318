package pipeline

import (
	"context"
	"log/slog"

	"github.com/siherrmann/summer/model"
)

// RelationOracle answers knowledge graph questions about entities.
// Implementations must be safe for concurrent use.
type RelationOracle interface {
	// Lookup returns every relation touching e.
	Lookup(ctx context.Context, e model.Entity) ([]model.Relation, error)
	// SynonymOf returns the entities one synonym edge away from e.
	SynonymOf(ctx context.Context, e model.Entity) (*model.EntitySet, error)
	// RelatedTo returns the entities one non negated edge away from e.
	RelatedTo(ctx context.Context, e model.Entity) (*model.EntitySet, error)
	// RelatedToWeighted returns the relations of e with their weights.
	RelatedToWeighted(ctx context.Context, e model.Entity) ([]model.Relation, error)
	// Strength returns the summed absolute weight of the edges between a and b.
	Strength(ctx context.Context, a, b model.Entity) (float64, error)
}

// EntityFinder extracts entities from a sentence or title.
type EntityFinder func(ctx context.Context, text string) (*model.EntitySet, error)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// NLP splits text into sentences and measures them.
type NLP interface {
	SentenceTokenize(text string) []string
	SentenceLength(sentence string) int
}

// Pipeline turns questions into the entity records the core works on.
type Pipeline struct {
	Finder EntityFinder
	NLP    NLP
	Logger *slog.Logger
}

// NewPipeline creates a new processing pipeline
func NewPipeline(finder EntityFinder, nlp NLP, logger *slog.Logger) *Pipeline {
	if nlp == nil {
		nlp = SimpleNLP{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		Finder: finder,
		NLP:    nlp,
		Logger: logger,
	}
}

// TitleEntities finds the entities of a title sentence by sentence.
func (p *Pipeline) TitleEntities(ctx context.Context, title string) (*model.EntitySet, error) {
	entities := model.NewEntitySet()
	for _, sentence := range p.NLP.SentenceTokenize(title) {
		found, err := p.Finder(ctx, sentence)
		if err != nil {
			return nil, err
		}
		entities.AddAll(found)
	}
	return entities, nil
}

// Records splits every answer into sentences and keeps those with at least
// one entity. Sentences the finder fails on are logged and skipped.
func (p *Pipeline) Records(ctx context.Context, answers []string) []model.SentenceEntityRecord {
	var records []model.SentenceEntityRecord
	for _, answer := range answers {
		for _, sentence := range p.NLP.SentenceTokenize(answer) {
			if ctx.Err() != nil {
				return records
			}
			entities, err := p.Finder(ctx, sentence)
			if err != nil {
				p.Logger.Warn("Entity finder failed, skipping sentence", slog.String("sentence", sentence), slog.String("error", err.Error()))
				continue
			}
			if entities.Len() == 0 {
				continue
			}
			records = append(records, model.SentenceEntityRecord{
				Sentence: sentence,
				Entities: entities,
			})
		}
	}
	return records
}
