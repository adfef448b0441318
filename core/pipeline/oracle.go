package pipeline

import (
	"context"
	"math"

	"github.com/siherrmann/summer/model"
)

// LookupFunc returns every relation touching an entity.
type LookupFunc func(ctx context.Context, e model.Entity) ([]model.Relation, error)

// LookupOracle derives all oracle operations from a single lookup function.
type LookupOracle struct {
	lookup LookupFunc
}

// OracleFromLookup wraps lookup into a RelationOracle.
func OracleFromLookup(lookup LookupFunc) *LookupOracle {
	return &LookupOracle{lookup: lookup}
}

// Lookup returns the relations of e.
func (o *LookupOracle) Lookup(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	return o.lookup(ctx, e)
}

// SynonymOf collects neighbors over synonym relations.
func (o *LookupOracle) SynonymOf(ctx context.Context, e model.Entity) (*model.EntitySet, error) {
	return o.neighbors(ctx, e, func(r model.Relation) bool {
		return r.Type.IsSynonym()
	})
}

// RelatedTo collects neighbors over every non negated relation.
func (o *LookupOracle) RelatedTo(ctx context.Context, e model.Entity) (*model.EntitySet, error) {
	return o.neighbors(ctx, e, func(r model.Relation) bool {
		return !r.Type.IsNegated()
	})
}

// RelatedToWeighted returns the relations of e without self loops.
func (o *LookupOracle) RelatedToWeighted(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	relations, err := o.lookup(ctx, e)
	if err != nil {
		return nil, err
	}
	out := make([]model.Relation, 0, len(relations))
	for _, r := range relations {
		if n, ok := r.Neighbor(e); ok && n != e {
			out = append(out, r)
		}
	}
	return out, nil
}

// Strength sums the absolute weights of the relations between a and b.
func (o *LookupOracle) Strength(ctx context.Context, a, b model.Entity) (float64, error) {
	relations, err := o.lookup(ctx, a)
	if err != nil {
		return 0, err
	}
	strength := 0.0
	for _, r := range relations {
		if n, ok := r.Neighbor(a); ok && n == b {
			strength += math.Abs(r.Weight)
		}
	}
	return strength, nil
}

func (o *LookupOracle) neighbors(ctx context.Context, e model.Entity, keep func(model.Relation) bool) (*model.EntitySet, error) {
	relations, err := o.lookup(ctx, e)
	if err != nil {
		return nil, err
	}
	out := model.NewEntitySet()
	for _, r := range relations {
		if !keep(r) {
			continue
		}
		if n, ok := r.Neighbor(e); ok && n != e {
			out.Add(n)
		}
	}
	return out, nil
}
