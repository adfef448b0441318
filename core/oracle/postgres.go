package oracle

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/database"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
)

// PostgresOptions configures the embedding neighbors the postgres oracle
// adds to stored assertions.
type PostgresOptions struct {
	Language string
	// SimilarLimit is the number of nearest concepts turned into SimilarTo
	// relations. Zero disables similarity neighbors.
	SimilarLimit     int
	SimilarThreshold float64
}

// Postgres reads assertions from postgres and adds the nearest concepts by
// embedding as SimilarTo relations weighted by cosine similarity.
type Postgres struct {
	*pipeline.LookupOracle
	concepts   database.ConceptsDBHandlerFunctions
	assertions database.AssertionsDBHandlerFunctions
	options    PostgresOptions
	logger     *slog.Logger
}

// NewPostgres creates the oracle on top of the two handlers.
func NewPostgres(concepts database.ConceptsDBHandlerFunctions, assertions database.AssertionsDBHandlerFunctions, options PostgresOptions, logger *slog.Logger) (*Postgres, error) {
	if assertions == nil {
		return nil, helper.NewConfigurationError("postgres oracle", "assertions handler is nil")
	}
	if options.SimilarLimit > 0 && concepts == nil {
		return nil, helper.NewConfigurationError("postgres oracle", "similarity neighbors need a concepts handler")
	}
	if options.Language == "" {
		options.Language = "en"
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Postgres{
		concepts:   concepts,
		assertions: assertions,
		options:    options,
		logger:     logger,
	}
	p.LookupOracle = pipeline.OracleFromLookup(p.lookup)
	return p, nil
}

// Import stores relations as assertions and their endpoints as concepts.
// With a non nil embed every new concept gets an embedding.
func (p *Postgres) Import(ctx context.Context, relations []model.Relation, embed pipeline.EmbedFunc) error {
	seen := model.NewEntitySet()
	for _, r := range relations {
		assertion := &model.Assertion{
			Start:    r.Start,
			End:      r.End,
			Relation: r.Type,
			Weight:   r.Weight,
			Dataset:  "import",
		}
		if err := p.assertions.InsertAssertion(ctx, assertion); err != nil {
			return helper.NewError("import assertion", err)
		}

		if p.concepts == nil {
			continue
		}
		for _, e := range []model.Entity{assertion.Start, assertion.End} {
			if !seen.Add(e) {
				continue
			}
			concept := &model.Concept{Name: e, Language: p.options.Language}
			if embed != nil {
				embedding, err := embed(string(e))
				if err != nil {
					return helper.NewError("embed concept", err)
				}
				concept.Embedding = embedding
			}
			if err := p.concepts.InsertConcept(ctx, concept); err != nil {
				return helper.NewError("import concept", err)
			}
		}
	}

	p.logger.Info("Imported relations", slog.Int("relations", len(relations)), slog.Int("concepts", seen.Len()))
	return nil
}

func (p *Postgres) lookup(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	assertions, err := p.assertions.SelectAssertionsByEntity(ctx, e)
	if err != nil {
		return nil, helper.NewError("postgres lookup", err)
	}

	relations := make([]model.Relation, 0, len(assertions)+p.options.SimilarLimit)
	for _, a := range assertions {
		relations = append(relations, a.ToRelation())
	}

	if p.options.SimilarLimit <= 0 {
		return relations, nil
	}

	similar, err := p.similar(ctx, e)
	if err != nil {
		return nil, helper.NewError("postgres similarity", err)
	}
	return append(relations, similar...), nil
}

func (p *Postgres) similar(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	concept, err := p.concepts.SelectConceptByName(ctx, e, p.options.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(concept.Embedding) == 0 {
		return nil, nil
	}

	// One extra row because the concept itself is its own nearest neighbor.
	neighbors, err := p.concepts.SelectConceptsBySimilarity(ctx, concept.Embedding, p.options.Language, p.options.SimilarLimit+1, p.options.SimilarThreshold)
	if err != nil {
		return nil, err
	}

	var relations []model.Relation
	for _, n := range neighbors {
		if n.Name == e || len(relations) == p.options.SimilarLimit {
			continue
		}
		relations = append(relations, model.Relation{
			Start:  e,
			End:    n.Name,
			Type:   model.RelationSimilarTo,
			Weight: n.Similarity,
		})
	}
	return relations, nil
}
