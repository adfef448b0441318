package graph

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Ranker ranks or prunes an expanded entity set using the pairwise
// relation strength between its entities.
type Ranker struct {
	oracle pipeline.RelationOracle
	config model.RankConfig
	logger *slog.Logger
}

// NewRanker creates a Ranker. The strategy is checked on every Rank call.
func NewRanker(oracle pipeline.RelationOracle, config model.RankConfig, logger *slog.Logger) *Ranker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ranker{oracle: oracle, config: config, logger: logger}
}

// entityGraph is the undirected weighted graph over an enumeration of entities.
// Node ids are indexes into nodes.
type entityGraph struct {
	nodes []model.Entity
	g     *simple.WeightedUndirectedGraph
	edges int
}

// Rank returns the entities kept by the configured strategy, always including
// title. Sets smaller than MinSize are returned unchanged.
func (r *Ranker) Rank(ctx context.Context, entities *model.EntitySet, title *model.EntitySet) (*model.EntitySet, error) {
	switch r.config.Strategy {
	case model.RankPageRank, model.RankHITS, model.RankCC, model.RankKCore:
	default:
		return nil, helper.NewConfigurationError("rank", "unknown rank strategy %q", r.config.Strategy)
	}
	if entities.Len() < r.config.MinSize {
		return entities.Clone(), nil
	}

	eg, err := r.buildGraph(ctx, entities)
	if err != nil {
		return nil, err
	}

	var kept *model.EntitySet
	switch r.config.Strategy {
	case model.RankPageRank:
		scores, active := r.pageRank(eg, title)
		kept = r.topN(eg, scores, active)
	case model.RankHITS:
		kept = r.topN(eg, r.hubScores(eg), nil)
	case model.RankCC:
		kept = r.smallComponents(eg)
	case model.RankKCore:
		kept = r.outsideCrust(eg)
	}
	kept.AddAll(title)

	r.logger.Debug("Ranked entities",
		slog.String("strategy", string(r.config.Strategy)),
		slog.Int("entities", entities.Len()),
		slog.Int("edges", eg.edges),
		slog.Int("kept", kept.Len()),
	)
	return kept, nil
}

// buildGraph queries the strength of every unordered pair. Failed queries
// count as no edge.
func (r *Ranker) buildGraph(ctx context.Context, entities *model.EntitySet) (*entityGraph, error) {
	eg := &entityGraph{
		nodes: entities.Items(),
		g:     simple.NewWeightedUndirectedGraph(0, 0),
	}
	for i := range eg.nodes {
		eg.g.AddNode(simple.Node(i))
	}

	for i := 0; i < len(eg.nodes); i++ {
		for j := i + 1; j < len(eg.nodes); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			strength, err := r.oracle.Strength(ctx, eg.nodes[i], eg.nodes[j])
			if err != nil {
				r.logger.Warn("Strength lookup failed", slog.String("a", string(eg.nodes[i])), slog.String("b", string(eg.nodes[j])), slog.String("error", err.Error()))
				continue
			}
			weight := edgeWeight(strength, r.config.WeightMode)
			if weight <= 0 {
				continue
			}
			eg.g.SetWeightedEdge(eg.g.NewWeightedEdge(simple.Node(i), simple.Node(j), weight))
			eg.edges++
		}
	}
	return eg, nil
}

func edgeWeight(strength float64, mode model.WeightMode) float64 {
	if math.IsNaN(strength) || math.IsInf(strength, 0) || strength <= 0 {
		return 0
	}
	if mode == model.WeightBinary {
		return 1
	}
	return strength
}

// pageRank runs personalized PageRank on the nodes with at least one edge.
// Isolated nodes are removed: they score 0 and are reported inactive.
func (r *Ranker) pageRank(eg *entityGraph, title *model.EntitySet) ([]float64, []bool) {
	n := len(eg.nodes)
	scores := make([]float64, n)
	isActive := make([]bool, n)
	active := make([]int, 0, n)
	strength := make([]float64, n)
	for i := 0; i < n; i++ {
		to := eg.g.From(int64(i))
		for to.Next() {
			w, _ := eg.g.Weight(int64(i), to.Node().ID())
			strength[i] += w
		}
		if strength[i] > 0 {
			active = append(active, i)
			isActive[i] = true
		}
	}
	if len(active) == 0 {
		return scores, isActive
	}

	personalization := make([]float64, n)
	mass := 0.0
	for _, i := range active {
		personalization[i] = r.config.OtherMass
		if title.Has(eg.nodes[i]) {
			personalization[i] = r.config.TitleMass
		}
		mass += personalization[i]
	}
	if mass <= 0 {
		for _, i := range active {
			personalization[i] = 1
		}
		mass = float64(len(active))
	}
	for _, i := range active {
		personalization[i] /= mass
	}

	rank := make([]float64, n)
	copy(rank, personalization)
	next := make([]float64, n)
	damping := r.config.Damping
	for iter := 0; iter < max(r.config.MaxIterations, 1); iter++ {
		for _, i := range active {
			next[i] = (1 - damping) * personalization[i]
		}
		for _, i := range active {
			to := eg.g.From(int64(i))
			for to.Next() {
				j := to.Node().ID()
				w, _ := eg.g.Weight(int64(i), j)
				next[j] += damping * rank[i] * w / strength[i]
			}
		}

		diff := 0.0
		for _, i := range active {
			diff += math.Abs(next[i] - rank[i])
			rank[i] = next[i]
		}
		if diff < float64(len(active))*r.config.Tolerance {
			break
		}
	}

	for _, i := range active {
		scores[i] = rank[i]
	}
	return scores, isActive
}

// hubScores returns HITS hub scores. A graph without edges scores 0 everywhere.
func (r *Ranker) hubScores(eg *entityGraph) []float64 {
	scores := make([]float64, len(eg.nodes))
	if eg.edges == 0 {
		return scores
	}

	directed := simple.NewDirectedGraph()
	for i := range eg.nodes {
		directed.AddNode(simple.Node(i))
	}
	edges := eg.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		directed.SetEdge(directed.NewEdge(e.From(), e.To()))
		directed.SetEdge(directed.NewEdge(e.To(), e.From()))
	}

	tol := r.config.Tolerance
	if tol <= 0 {
		tol = 1e-8
	}
	for id, ha := range network.HITS(directed, tol) {
		scores[id] = ha.Hub
	}
	return scores
}

// topN orders the eligible nodes by descending score, ties in enumeration
// order, and keeps the first TopN. A nil eligible mask admits every node.
func (r *Ranker) topN(eg *entityGraph, scores []float64, eligible []bool) *model.EntitySet {
	order := make([]int, 0, len(eg.nodes))
	for i := range eg.nodes {
		if eligible == nil || eligible[i] {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	limit := r.config.TopN
	if limit <= 0 || limit > len(order) {
		limit = len(order)
	}
	kept := model.NewEntitySet()
	for _, i := range order[:limit] {
		kept.Add(eg.nodes[i])
	}
	return kept
}

// smallComponents keeps the nodes of components smaller than ComponentSize.
func (r *Ranker) smallComponents(eg *entityGraph) *model.EntitySet {
	keep := make([]bool, len(eg.nodes))
	for _, component := range topo.ConnectedComponents(eg.g) {
		if len(component) >= r.config.ComponentSize {
			continue
		}
		for _, node := range component {
			keep[node.ID()] = true
		}
	}
	return selectNodes(eg, keep)
}

// outsideCrust drops the k-crust, the nodes with core number <= CrustK.
func (r *Ranker) outsideCrust(eg *entityGraph) *model.EntitySet {
	cores := coreNumbers(eg.g, len(eg.nodes))
	keep := make([]bool, len(eg.nodes))
	for i, core := range cores {
		keep[i] = core > r.config.CrustK
	}
	return selectNodes(eg, keep)
}

func selectNodes(eg *entityGraph, keep []bool) *model.EntitySet {
	kept := model.NewEntitySet()
	for i, ok := range keep {
		if ok {
			kept.Add(eg.nodes[i])
		}
	}
	return kept
}

// coreNumbers computes the core number of every node by repeatedly removing
// a node of minimum remaining degree.
func coreNumbers(g gonumgraph.Undirected, n int) []int {
	degree := make([]int, n)
	for i := 0; i < n; i++ {
		degree[i] = g.From(int64(i)).Len()
	}

	cores := make([]int, n)
	removed := make([]bool, n)
	current := 0
	for step := 0; step < n; step++ {
		minNode := -1
		for i := 0; i < n; i++ {
			if !removed[i] && (minNode < 0 || degree[i] < degree[minNode]) {
				minNode = i
			}
		}
		current = max(current, degree[minNode])
		cores[minNode] = current
		removed[minNode] = true

		neighbors := g.From(int64(minNode))
		for neighbors.Next() {
			j := neighbors.Node().ID()
			if !removed[j] {
				degree[j]--
			}
		}
	}
	return cores
}
