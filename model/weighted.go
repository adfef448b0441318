package model

import (
	"math"
	"sort"
)

// WeightedEntities maps entities to weights and keeps insertion order.
// Weights are always finite.
type WeightedEntities struct {
	keys    []Entity
	weights map[Entity]float64
}

// NewWeightedEntities creates an empty mapping.
func NewWeightedEntities() *WeightedEntities {
	return &WeightedEntities{weights: make(map[Entity]float64)}
}

// UniformWeights gives every entity of set the same weight.
func UniformWeights(set *EntitySet, weight float64) *WeightedEntities {
	w := NewWeightedEntities()
	for _, e := range set.Items() {
		w.Set(e, weight)
	}
	return w
}

// Set assigns weight to e. Non finite weights are ignored.
func (w *WeightedEntities) Set(e Entity, weight float64) bool {
	if e == "" || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return false
	}
	if w.weights == nil {
		w.weights = make(map[Entity]float64)
	}
	if _, ok := w.weights[e]; !ok {
		w.keys = append(w.keys, e)
	}
	w.weights[e] = weight
	return true
}

// Add accumulates weight onto e.
func (w *WeightedEntities) Add(e Entity, weight float64) bool {
	current, _ := w.Get(e)
	return w.Set(e, current+weight)
}

// Get returns the weight of e.
func (w *WeightedEntities) Get(e Entity) (float64, bool) {
	if w == nil {
		return 0, false
	}
	weight, ok := w.weights[e]
	return weight, ok
}

// Has reports whether e has a weight.
func (w *WeightedEntities) Has(e Entity) bool {
	_, ok := w.Get(e)
	return ok
}

// Len returns the number of weighted entities.
func (w *WeightedEntities) Len() int {
	if w == nil {
		return 0
	}
	return len(w.keys)
}

// Keys returns the entities in their current order.
func (w *WeightedEntities) Keys() []Entity {
	if w == nil {
		return nil
	}
	out := make([]Entity, len(w.keys))
	copy(out, w.keys)
	return out
}

// Entities returns the keys as an EntitySet.
func (w *WeightedEntities) Entities() *EntitySet {
	return NewEntitySet(w.Keys()...)
}

// Clone returns an independent copy.
func (w *WeightedEntities) Clone() *WeightedEntities {
	out := NewWeightedEntities()
	for _, e := range w.Keys() {
		out.Set(e, w.weights[e])
	}
	return out
}

// SortDesc orders the entities by descending weight. Ties keep their order.
func (w *WeightedEntities) SortDesc() {
	if w == nil {
		return
	}
	sort.SliceStable(w.keys, func(i, j int) bool {
		return w.weights[w.keys[i]] > w.weights[w.keys[j]]
	})
}

// Truncate keeps the first n entities. n <= 0 keeps everything.
func (w *WeightedEntities) Truncate(n int) {
	if w == nil || n <= 0 || n >= len(w.keys) {
		return
	}
	for _, e := range w.keys[n:] {
		delete(w.weights, e)
	}
	w.keys = w.keys[:n]
}

// AbsSum returns the sum of absolute weights.
func (w *WeightedEntities) AbsSum() float64 {
	total := 0.0
	for _, e := range w.Keys() {
		total += math.Abs(w.weights[e])
	}
	return total
}

// Normalize scales the weights so their absolute values sum to 1.
// When the total is 0 the mapping is emptied.
func (w *WeightedEntities) Normalize() {
	if w == nil {
		return
	}
	total := w.AbsSum()
	if total == 0 {
		w.keys = nil
		w.weights = make(map[Entity]float64)
		return
	}
	for _, e := range w.keys {
		w.weights[e] /= total
	}
}
