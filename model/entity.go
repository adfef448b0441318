package model

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Entity is a normalized concept name, e.g. "volcanic eruption".
// Use NormalizeEntity to build one from raw text or a knowledge graph URI.
type Entity string

var conceptURIPrefix = regexp.MustCompile(`^/c/[a-z]{2,3}/`)

// NormalizeEntity strips knowledge graph decoration from a raw concept name.
// "/c/en/volcanic_eruption/n" and "Volcanic Eruption" both become
// "volcanic eruption".
func NormalizeEntity(raw string) Entity {
	s := strings.TrimSpace(raw)
	if loc := conceptURIPrefix.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
		// Part-of-speech and sense suffixes follow the concept name.
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
	}
	s = strings.ReplaceAll(s, "_", " ")
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return Entity(strings.Join(strings.Fields(s), " "))
}

// URI returns the ConceptNet style URI of the entity for the given language.
func (e Entity) URI(lang string) string {
	return "/c/" + lang + "/" + strings.ReplaceAll(string(e), " ", "_")
}

func (e Entity) String() string {
	return string(e)
}

// EntitySet is a set of entities that remembers insertion order.
// All iteration happens in insertion order so results are reproducible.
type EntitySet struct {
	items []Entity
	index map[Entity]struct{}
}

// NewEntitySet creates a set from the given entities, skipping duplicates
// and empty names.
func NewEntitySet(entities ...Entity) *EntitySet {
	s := &EntitySet{
		items: make([]Entity, 0, len(entities)),
		index: make(map[Entity]struct{}, len(entities)),
	}
	for _, e := range entities {
		s.Add(e)
	}
	return s
}

// Add inserts e and reports whether it was new.
func (s *EntitySet) Add(e Entity) bool {
	if e == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[Entity]struct{})
	}
	if _, ok := s.index[e]; ok {
		return false
	}
	s.index[e] = struct{}{}
	s.items = append(s.items, e)
	return true
}

// AddAll inserts every entity of other and returns how many were new.
func (s *EntitySet) AddAll(other *EntitySet) int {
	added := 0
	for _, e := range other.Items() {
		if s.Add(e) {
			added++
		}
	}
	return added
}

// Has reports whether e is in the set.
func (s *EntitySet) Has(e Entity) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[e]
	return ok
}

// Len returns the number of entities.
func (s *EntitySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns a copy of the entities in insertion order.
func (s *EntitySet) Items() []Entity {
	if s == nil {
		return nil
	}
	out := make([]Entity, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy.
func (s *EntitySet) Clone() *EntitySet {
	return NewEntitySet(s.Items()...)
}

// Union returns a new set with the entities of s followed by the new ones of other.
func (s *EntitySet) Union(other *EntitySet) *EntitySet {
	out := s.Clone()
	out.AddAll(other)
	return out
}

// Intersect returns the entities of s that are also in other, in the order of s.
func (s *EntitySet) Intersect(other *EntitySet) *EntitySet {
	out := NewEntitySet()
	for _, e := range s.Items() {
		if other.Has(e) {
			out.Add(e)
		}
	}
	return out
}

// Strings returns the entity names in insertion order.
func (s *EntitySet) Strings() []string {
	items := s.Items()
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = string(e)
	}
	return out
}
