package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RelationType names the kind of knowledge graph edge, e.g. "RelatedTo".
// A ConceptNet "/r/" prefix is accepted and ignored.
type RelationType string

const (
	RelationSynonym     RelationType = "Synonym"
	RelationFormOf      RelationType = "FormOf"
	RelationSimilarTo   RelationType = "SimilarTo"
	RelationDerivedFrom RelationType = "DerivedFrom"
	RelationRelatedTo   RelationType = "RelatedTo"
	RelationIsA         RelationType = "IsA"
	RelationPartOf      RelationType = "PartOf"
	RelationHasA        RelationType = "HasA"
	RelationCauses      RelationType = "Causes"
	RelationUsedFor     RelationType = "UsedFor"
	RelationAntonym     RelationType = "Antonym"
	RelationNotDesires  RelationType = "NotDesires"
)

var synonymTypes = map[RelationType]struct{}{
	RelationSynonym:     {},
	RelationFormOf:      {},
	RelationSimilarTo:   {},
	RelationDerivedFrom: {},
}

// Name returns the type without the "/r/" prefix.
func (r RelationType) Name() RelationType {
	return RelationType(strings.TrimPrefix(string(r), "/r/"))
}

// IsSynonym reports whether the relation links two names of the same concept.
func (r RelationType) IsSynonym() bool {
	_, ok := synonymTypes[r.Name()]
	return ok
}

// IsNegated reports whether the relation asserts the opposite, e.g. NotDesires.
func (r RelationType) IsNegated() bool {
	return strings.HasPrefix(string(r.Name()), "Not")
}

// Relation is one knowledge graph edge between two entities.
type Relation struct {
	Start  Entity       `json:"start" yaml:"start"`
	End    Entity       `json:"end" yaml:"end"`
	Type   RelationType `json:"rel" yaml:"rel"`
	Weight float64      `json:"weight" yaml:"weight"`
}

// Neighbor returns the endpoint opposite to e and whether e is an endpoint.
func (r Relation) Neighbor(e Entity) (Entity, bool) {
	switch e {
	case r.Start:
		return r.End, true
	case r.End:
		return r.Start, true
	}
	return "", false
}

// Concept is a knowledge graph node as stored in postgres.
type Concept struct {
	ID         uuid.UUID `json:"id"`
	Name       Entity    `json:"name"`
	Language   string    `json:"language"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Similarity float64   `json:"similarity,omitempty"` // Only set by similarity search
}

// Assertion is a knowledge graph edge as stored in postgres.
type Assertion struct {
	ID        uuid.UUID    `json:"id"`
	Start     Entity       `json:"start"`
	End       Entity       `json:"end"`
	Relation  RelationType `json:"relation"`
	Weight    float64      `json:"weight"`
	Dataset   string       `json:"dataset,omitempty"`
	Metadata  Metadata     `json:"metadata,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// ToRelation converts the stored assertion into a Relation.
func (a *Assertion) ToRelation() Relation {
	return Relation{
		Start:  a.Start,
		End:    a.End,
		Type:   a.Relation,
		Weight: a.Weight,
	}
}
