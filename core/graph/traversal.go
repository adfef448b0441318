package graph

import (
	"context"
	"log/slog"

	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/core/scoring"
	"github.com/siherrmann/summer/model"
)

// HopRule returns the neighbors of an entity for one expansion level.
type HopRule func(ctx context.Context, e model.Entity) (*model.EntitySet, error)

// WeightedHopRule returns the weighted relations of an entity for one level.
type WeightedHopRule func(ctx context.Context, e model.Entity) ([]model.Relation, error)

// SynonymRule follows a single synonym edge per level.
func SynonymRule(oracle pipeline.RelationOracle) HopRule {
	return oracle.SynonymOf
}

// RelatedRule follows any non negated edge per level.
func RelatedRule(oracle pipeline.RelationOracle) HopRule {
	return oracle.RelatedTo
}

// WeightedRelatedRule follows weighted edges per level.
func WeightedRelatedRule(oracle pipeline.RelationOracle) WeightedHopRule {
	return oracle.RelatedToWeighted
}

// WeightedOptions configures a weighted expansion.
type WeightedOptions struct {
	Levels      int
	MaxCount    int     // Entities kept after each level, <= 0 keeps all
	NeighborCap int     // Relations followed per entity, <= 0 follows all
	Decay       float64 // Factor applied to every propagated weight
}

// Expander runs level bounded expansions over a knowledge graph.
// Lookups are memoized for the duration of one Expand call.
type Expander struct {
	logger *slog.Logger
}

// NewExpander creates an Expander logging failed lookups to logger.
func NewExpander(logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{logger: logger}
}

// expansionState is the accumulator threaded through the levels of Expand.
type expansionState struct {
	expanded *model.EntitySet
	frontier *model.EntitySet
	level    int
	grew     bool
}

// Expand widens base by applying rule to the whole frontier once per level.
// It stops after maxLevel levels or as soon as a level adds nothing.
// The result always contains base. The only error is ctx.Err().
func (x *Expander) Expand(ctx context.Context, base *model.EntitySet, rule HopRule, maxLevel int) (*model.EntitySet, error) {
	memo := x.memoize(rule)
	state := expansionState{
		expanded: base.Clone(),
		frontier: base.Clone(),
		grew:     true,
	}

	for state.level < maxLevel && state.grew {
		next, err := expandLevel(ctx, state, memo)
		if err != nil {
			return next.expanded, err
		}
		state = next
	}

	x.logger.Debug("Expanded entities",
		slog.Int("base", base.Len()),
		slog.Int("expanded", state.expanded.Len()),
		slog.Int("levels", state.level),
	)
	return state.expanded, nil
}

// expandLevel applies rule to every frontier entity and returns the next state.
func expandLevel(ctx context.Context, state expansionState, rule HopRule) (expansionState, error) {
	expanded := state.expanded.Clone()
	for _, e := range state.frontier.Items() {
		if err := ctx.Err(); err != nil {
			return expansionState{expanded: expanded, frontier: state.frontier, level: state.level}, err
		}
		neighbors, _ := rule(ctx, e)
		expanded.AddAll(neighbors)
	}

	return expansionState{
		expanded: expanded,
		frontier: expanded.Clone(),
		level:    state.level + 1,
		grew:     expanded.Len() > state.expanded.Len(),
	}, nil
}

// memoize caches rule results and turns failures into empty neighbor sets.
func (x *Expander) memoize(rule HopRule) HopRule {
	cache := make(map[model.Entity]*model.EntitySet)
	return func(ctx context.Context, e model.Entity) (*model.EntitySet, error) {
		if neighbors, ok := cache[e]; ok {
			return neighbors, nil
		}
		neighbors, err := rule(ctx, e)
		if err != nil {
			x.logger.Warn("Lookup failed, treating entity as isolated", slog.String("entity", string(e)), slog.String("error", err.Error()))
			neighbors = model.NewEntitySet()
		}
		if neighbors == nil {
			neighbors = model.NewEntitySet()
		}
		cache[e] = neighbors
		return neighbors, nil
	}
}

// ExpandWeighted propagates weights from base along weighted relations.
// Every level keeps the current entities and adds their neighbors with
// scores from scoring.ReverseAccumulate, where an edge carries
// relationWeight * Decay and a negated relation flips the sign. After each
// level the mapping is sorted, truncated to MaxCount and normalized.
func (x *Expander) ExpandWeighted(ctx context.Context, base *model.WeightedEntities, rule WeightedHopRule, opts WeightedOptions) (*model.WeightedEntities, error) {
	cache := make(map[model.Entity][]model.Relation)
	lookup := func(e model.Entity) []model.Relation {
		if relations, ok := cache[e]; ok {
			return relations
		}
		relations, err := rule(ctx, e)
		if err != nil {
			x.logger.Warn("Weighted lookup failed, treating entity as isolated", slog.String("entity", string(e)), slog.String("error", err.Error()))
			relations = nil
		}
		if opts.NeighborCap > 0 && len(relations) > opts.NeighborCap {
			relations = relations[:opts.NeighborCap]
		}
		cache[e] = relations
		return relations
	}

	current := base.Clone()
	for level := 0; level < opts.Levels; level++ {
		var edges []scoring.Edge
		for _, e := range current.Keys() {
			if err := ctx.Err(); err != nil {
				return current, err
			}
			for _, r := range lookup(e) {
				neighbor, ok := r.Neighbor(e)
				if !ok || neighbor == e {
					continue
				}
				weight := r.Weight * opts.Decay
				if r.Type.IsNegated() {
					weight = -weight
				}
				edges = append(edges, scoring.Edge{Source: e, Target: neighbor, Weight: weight})
			}
		}

		accumulated := scoring.ReverseAccumulate(current, edges, 0)
		next := current.Clone()
		// A level only scores newly reached entities. Entities already
		// present keep their weight.
		for _, target := range accumulated.Keys() {
			if next.Has(target) {
				continue
			}
			score, _ := accumulated.Get(target)
			next.Set(target, score)
		}
		next.SortDesc()
		next.Truncate(opts.MaxCount)
		next.Normalize()

		grew := next.Len() > current.Len()
		current = next
		if !grew {
			break
		}
	}

	x.logger.Debug("Expanded weighted entities", slog.Int("base", base.Len()), slog.Int("expanded", current.Len()))
	return current, nil
}
