package expansion

import (
	"context"
	"log/slog"

	"github.com/siherrmann/summer/core/graph"
	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
)

// Result is the outcome of expanding the entities of a title.
type Result struct {
	Title    *model.EntitySet         // Entities found in the title
	Synonyms *model.EntitySet         // Synonym layer after filtering
	Expanded *model.WeightedEntities // Final expansion with weights
}

// Expansioner expands the entities of a question title.
type Expansioner interface {
	Expand(ctx context.Context, title *model.EntitySet) (*Result, error)
}

// base holds what every strategy shares: the synonym layer and the
// unweighted relate layer.
type base struct {
	config   model.ExpansionConfig
	oracle   pipeline.RelationOracle
	expander *graph.Expander
	logger   *slog.Logger
}

func (b *base) synonyms(ctx context.Context, title *model.EntitySet) (*model.EntitySet, error) {
	return b.expander.Expand(ctx, title, graph.SynonymRule(b.oracle), b.config.SynonymLevel)
}

func (b *base) relate(ctx context.Context, entities *model.EntitySet) (*model.EntitySet, error) {
	return b.expander.Expand(ctx, entities, graph.RelatedRule(b.oracle), b.config.RelateLevel)
}

func (b *base) result(title, synonyms, expanded *model.EntitySet) *Result {
	return &Result{
		Title:    title.Clone(),
		Synonyms: synonyms,
		Expanded: model.UniformWeights(expanded, b.config.SeedWeight),
	}
}

// OnlySynonym expands over synonym edges only.
type OnlySynonym struct {
	base
}

func (s *OnlySynonym) Expand(ctx context.Context, title *model.EntitySet) (*Result, error) {
	synonyms, err := s.synonyms(ctx, title)
	if err != nil {
		return nil, helper.NewError("synonym expansion", err)
	}
	return s.result(title, synonyms, synonyms), nil
}

// SynonymThenRelate expands over synonym edges, then over any relation.
type SynonymThenRelate struct {
	base
}

func (s *SynonymThenRelate) Expand(ctx context.Context, title *model.EntitySet) (*Result, error) {
	synonyms, err := s.synonyms(ctx, title)
	if err != nil {
		return nil, helper.NewError("synonym expansion", err)
	}
	related, err := s.relate(ctx, synonyms)
	if err != nil {
		return nil, helper.NewError("relate expansion", err)
	}
	return s.result(title, synonyms, related), nil
}

// RankedSynonymThenRelate keeps the top ranked synonyms (pagerank or hits)
// before the relate layer.
type RankedSynonymThenRelate struct {
	base
	ranker *graph.Ranker
}

func (s *RankedSynonymThenRelate) Expand(ctx context.Context, title *model.EntitySet) (*Result, error) {
	synonyms, err := s.filtered(ctx, title)
	if err != nil {
		return nil, err
	}
	related, err := s.relate(ctx, synonyms)
	if err != nil {
		return nil, helper.NewError("relate expansion", err)
	}
	return s.result(title, synonyms, related), nil
}

func (s *RankedSynonymThenRelate) filtered(ctx context.Context, title *model.EntitySet) (*model.EntitySet, error) {
	synonyms, err := s.synonyms(ctx, title)
	if err != nil {
		return nil, helper.NewError("synonym expansion", err)
	}
	kept, err := s.ranker.Rank(ctx, synonyms, title)
	if err != nil {
		return nil, helper.NewError("synonym filter", err)
	}
	s.logger.Debug("Filtered synonym layer", slog.Int("synonyms", synonyms.Len()), slog.Int("kept", kept.Len()))
	return kept, nil
}

// PrunedSynonymThenRelate drops synonyms by graph structure (connected
// components or k core) before the relate layer.
type PrunedSynonymThenRelate struct {
	RankedSynonymThenRelate
}

// WeightedRankedSynonymThenRelate ranks the synonym layer and then propagates
// decayed weights over the relate layer.
type WeightedRankedSynonymThenRelate struct {
	RankedSynonymThenRelate
}

func (s *WeightedRankedSynonymThenRelate) Expand(ctx context.Context, title *model.EntitySet) (*Result, error) {
	synonyms, err := s.filtered(ctx, title)
	if err != nil {
		return nil, err
	}

	seeds := model.UniformWeights(synonyms, s.config.SeedWeight)
	weighted, err := s.expander.ExpandWeighted(ctx, seeds, graph.WeightedRelatedRule(s.oracle), graph.WeightedOptions{
		Levels:      s.config.RelateLevel,
		MaxCount:    s.config.MaxCount,
		NeighborCap: s.config.NeighborCap,
		Decay:       s.config.Decay,
	})
	if err != nil {
		return nil, helper.NewError("weighted relate expansion", err)
	}
	return &Result{Title: title.Clone(), Synonyms: synonyms, Expanded: weighted}, nil
}

// New creates the Expansioner selected by config.Expansion.Strategy.
// Ranked strategies need a scoring rank strategy and pruned strategies a
// pruning one.
func New(config model.SummaryConfig, oracle pipeline.RelationOracle, logger *slog.Logger) (Expansioner, error) {
	if oracle == nil {
		return nil, helper.NewConfigurationError("new expansioner", "relation oracle is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := base{
		config:   config.Expansion,
		oracle:   oracle,
		expander: graph.NewExpander(logger),
		logger:   logger,
	}
	ranked := RankedSynonymThenRelate{base: b, ranker: graph.NewRanker(oracle, config.Rank, logger)}
	scoring := config.Rank.Strategy == model.RankPageRank || config.Rank.Strategy == model.RankHITS
	pruning := config.Rank.Strategy == model.RankCC || config.Rank.Strategy == model.RankKCore

	switch config.Expansion.Strategy {
	case model.ExpansionOnlySynonym:
		return &OnlySynonym{base: b}, nil
	case model.ExpansionSynonymThenRelate:
		return &SynonymThenRelate{base: b}, nil
	case model.ExpansionRankedSynonymThenRelate:
		if !scoring {
			return nil, helper.NewConfigurationError("new expansioner", "strategy %q needs pagerank or hits, got %q", config.Expansion.Strategy, config.Rank.Strategy)
		}
		return &ranked, nil
	case model.ExpansionPrunedSynonymThenRelate:
		if !pruning {
			return nil, helper.NewConfigurationError("new expansioner", "strategy %q needs cc or kcore, got %q", config.Expansion.Strategy, config.Rank.Strategy)
		}
		return &PrunedSynonymThenRelate{ranked}, nil
	case model.ExpansionWeightedRankedSynonymThenRelate:
		if !scoring {
			return nil, helper.NewConfigurationError("new expansioner", "strategy %q needs pagerank or hits, got %q", config.Expansion.Strategy, config.Rank.Strategy)
		}
		return &WeightedRankedSynonymThenRelate{ranked}, nil
	default:
		return nil, helper.NewConfigurationError("new expansioner", "unknown expansion strategy %q", config.Expansion.Strategy)
	}
}
