package oracle

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	"gopkg.in/yaml.v3"
)

// StaticFile is the YAML layout of a relation file:
//
//	relations:
//	  - start: /c/en/volcano
//	    end: /c/en/magma
//	    rel: /r/Synonym
//	    weight: 1.0
type StaticFile struct {
	Relations []model.Relation `yaml:"relations"`
}

// Static is an in memory knowledge graph. It is read only after creation
// and safe for concurrent use.
type Static struct {
	*pipeline.LookupOracle
	byEntity  map[model.Entity][]model.Relation
	relations []model.Relation
}

// NewStatic indexes relations by both endpoints. Entities are normalized and
// relation types lose their "/r/" prefix.
func NewStatic(relations []model.Relation) (*Static, error) {
	s := &Static{byEntity: make(map[model.Entity][]model.Relation)}
	for i, r := range relations {
		r.Start = model.NormalizeEntity(string(r.Start))
		r.End = model.NormalizeEntity(string(r.End))
		r.Type = r.Type.Name()
		if r.Start == "" || r.End == "" || r.Type == "" {
			return nil, helper.NewConfigurationError("static oracle", "relation %d is incomplete", i)
		}
		if math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) {
			return nil, helper.NewConfigurationError("static oracle", "relation %d has a non finite weight", i)
		}
		s.byEntity[r.Start] = append(s.byEntity[r.Start], r)
		if r.End != r.Start {
			s.byEntity[r.End] = append(s.byEntity[r.End], r)
		}
		s.relations = append(s.relations, r)
	}
	s.LookupOracle = pipeline.OracleFromLookup(s.lookup)
	return s, nil
}

// ParseStatic reads a relation file from r.
func ParseStatic(r io.Reader) (*Static, error) {
	var file StaticFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, helper.NewError("decode relations", err)
	}
	return NewStatic(file.Relations)
}

// LoadStatic reads the relation file at path.
func LoadStatic(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, helper.NewError("open relations", err)
	}
	defer f.Close()

	s, err := ParseStatic(f)
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("load %s", path), err)
	}
	return s, nil
}

// Len returns the number of relations.
func (s *Static) Len() int {
	return len(s.relations)
}

// Relations returns the normalized relations in file order.
func (s *Static) Relations() []model.Relation {
	out := make([]model.Relation, len(s.relations))
	copy(out, s.relations)
	return out
}

// Entities returns every entity with at least one relation.
func (s *Static) Entities() *model.EntitySet {
	entities := model.NewEntitySet()
	for _, relations := range s.byEntity {
		for _, r := range relations {
			entities.Add(r.Start)
			entities.Add(r.End)
		}
	}
	return entities
}

// Has reports whether the graph knows e. It makes Static usable as an n-gram
// vocabulary without a lookup per word.
func (s *Static) Has(_ context.Context, e model.Entity) (bool, error) {
	_, ok := s.byEntity[e]
	return ok, nil
}

func (s *Static) lookup(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	relations := s.byEntity[e]
	out := make([]model.Relation, len(relations))
	copy(out, relations)
	return out, nil
}
