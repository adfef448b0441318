package scoring

import (
	"log/slog"
	"math"
	"sort"

	"github.com/siherrmann/summer/model"
)

// ScoreModel turns expanded entity weights into hit scores for indexing.
type ScoreModel struct {
	config model.ScoreConfig
	logger *slog.Logger
}

// NewScoreModel creates a ScoreModel with the given constants.
func NewScoreModel(config model.ScoreConfig, logger *slog.Logger) *ScoreModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreModel{config: config, logger: logger}
}

// Transform computes ln(score + beta) + alpha * ln(freq / n).
// It reports false when the logarithms are undefined.
func (m *ScoreModel) Transform(score float64, freq, n int) (float64, bool) {
	if freq <= 0 || n <= 0 || score+m.config.Beta <= 0 {
		return 0, false
	}
	v := math.Log(score+m.config.Beta) + m.config.Alpha*math.Log(float64(freq)/float64(n))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Score splits the expanded entities into hit and unhit by whether they occur
// in any sentence record, counts frequencies over all records and transforms
// the weights of hit entities. Frequent entities of the answers that were not
// expanded are promoted into the hit map with their frequency as base score.
func (m *ScoreModel) Score(expanded *model.WeightedEntities, records []model.SentenceEntityRecord) *model.HitModel {
	result := &model.HitModel{
		Hit:       model.NewWeightedEntities(),
		HitFreq:   make(map[model.Entity]int),
		UnhitFreq: make(map[model.Entity]int),
	}

	var unhitOrder []model.Entity
	for _, record := range records {
		for _, e := range record.Entities.Items() {
			if expanded.Has(e) {
				result.HitFreq[e]++
				continue
			}
			if result.UnhitFreq[e] == 0 {
				unhitOrder = append(unhitOrder, e)
			}
			result.UnhitFreq[e]++
		}
	}

	n := len(records)
	for _, e := range expanded.Keys() {
		freq := result.HitFreq[e]
		if freq == 0 {
			continue
		}
		weight, _ := expanded.Get(e)
		score, ok := m.Transform(weight, freq, n)
		if !ok {
			m.logger.Debug("Skipping entity with undefined score", slog.String("entity", string(e)), slog.Float64("weight", weight))
			continue
		}
		result.Hit.Set(e, score)
	}

	promoted := 0
	if m.config.MinUnhitFreq > 0 {
		for _, e := range unhitOrder {
			freq := result.UnhitFreq[e]
			if freq < m.config.MinUnhitFreq {
				continue
			}
			score, ok := m.Transform(float64(freq), freq, n)
			if !ok {
				continue
			}
			result.Hit.Set(e, score)
			promoted++
		}
	}

	m.logger.Debug("Scored entities",
		slog.Int("expanded", expanded.Len()),
		slog.Int("hit", result.Hit.Len()-promoted),
		slog.Int("promoted", promoted),
		slog.Int("records", n),
	)
	return result
}

// Edge is one weighted contribution from a source to a target entity.
type Edge struct {
	Source model.Entity
	Target model.Entity
	Weight float64
}

// ReverseAccumulate groups edges by target and scores every target with
// connection * (fanIn + 1)^2, where connection is the sum of
// base[source] * weight over its edges and fanIn the number of distinct
// sources. Sources missing from base count with weight 0. The result is
// sorted by descending score, ties in first encounter order, and truncated
// to maxCount when maxCount > 0.
func ReverseAccumulate(base *model.WeightedEntities, edges []Edge, maxCount int) *model.WeightedEntities {
	type accumulator struct {
		connection float64
		sources    map[model.Entity]struct{}
	}

	var order []model.Entity
	byTarget := make(map[model.Entity]*accumulator)
	for _, edge := range edges {
		acc, ok := byTarget[edge.Target]
		if !ok {
			acc = &accumulator{sources: make(map[model.Entity]struct{})}
			byTarget[edge.Target] = acc
			order = append(order, edge.Target)
		}
		baseScore, _ := base.Get(edge.Source)
		acc.connection += baseScore * edge.Weight
		acc.sources[edge.Source] = struct{}{}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return targetScore(byTarget[order[i]].connection, len(byTarget[order[i]].sources)) >
			targetScore(byTarget[order[j]].connection, len(byTarget[order[j]].sources))
	})

	result := model.NewWeightedEntities()
	for _, target := range order {
		acc := byTarget[target]
		result.Set(target, targetScore(acc.connection, len(acc.sources)))
	}
	result.Truncate(maxCount)
	return result
}

func targetScore(connection float64, fanIn int) float64 {
	f := float64(fanIn + 1)
	return connection * f * f
}
