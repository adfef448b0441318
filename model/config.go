package model

import "github.com/siherrmann/summer/helper"

// ExpansionStrategy selects how title entities are expanded.
type ExpansionStrategy string

const (
	ExpansionOnlySynonym                     ExpansionStrategy = "only_synonym"
	ExpansionSynonymThenRelate               ExpansionStrategy = "synonym_then_relate"
	ExpansionRankedSynonymThenRelate         ExpansionStrategy = "ranked_synonym_then_relate"
	ExpansionPrunedSynonymThenRelate         ExpansionStrategy = "pruned_synonym_then_relate"
	ExpansionWeightedRankedSynonymThenRelate ExpansionStrategy = "weighted_ranked_synonym_then_relate"
)

// RankStrategy selects the graph ranking or pruning algorithm.
type RankStrategy string

const (
	RankPageRank RankStrategy = "pagerank"
	RankHITS     RankStrategy = "hits"
	RankCC       RankStrategy = "cc"
	RankKCore    RankStrategy = "kcore"
)

// WeightMode selects how pairwise edge weights of the ranking graph are built.
type WeightMode string

const (
	WeightBinary   WeightMode = "binary"
	WeightStrength WeightMode = "strength"
)

// Profile names a corpus profile with its own scoring and filtering constants.
type Profile string

const (
	ProfileDocument Profile = "document"
	ProfileSparse   Profile = "sparse"
)

// ExpansionConfig configures the entity expansion stage.
type ExpansionConfig struct {
	Strategy     ExpansionStrategy `json:"strategy" yaml:"strategy"`
	SynonymLevel int               `json:"synonym_level" yaml:"synonym_level"`
	RelateLevel  int               `json:"relate_level" yaml:"relate_level"`
	MaxCount     int               `json:"max_count" yaml:"max_count"`         // Cap after the weighted relate hop
	NeighborCap  int               `json:"neighbor_cap" yaml:"neighbor_cap"`   // Neighbors per entity in a relate hop
	Decay        float64           `json:"decay" yaml:"decay"`                 // Weight factor of one relate hop
	SeedWeight   float64           `json:"seed_weight" yaml:"seed_weight"`     // Initial weight of synonym entities
	HitThreshold int               `json:"hit_threshold" yaml:"hit_threshold"` // Entities per sentence for a hit sentence
}

// RankConfig configures the graph ranking stage.
type RankConfig struct {
	Strategy      RankStrategy `json:"strategy" yaml:"strategy"`
	WeightMode    WeightMode   `json:"weight_mode" yaml:"weight_mode"`
	TopN          int          `json:"top_n" yaml:"top_n"`
	MinSize       int          `json:"min_size" yaml:"min_size"`             // Smaller sets pass through unranked
	Damping       float64      `json:"damping" yaml:"damping"`               // PageRank damping factor
	TitleMass     float64      `json:"title_mass" yaml:"title_mass"`         // Personalization of title entities
	OtherMass     float64      `json:"other_mass" yaml:"other_mass"`         // Personalization of all other entities
	MaxIterations int          `json:"max_iterations" yaml:"max_iterations"` // Power iteration cap
	Tolerance     float64      `json:"tolerance" yaml:"tolerance"`
	ComponentSize int          `json:"component_size" yaml:"component_size"` // cc keeps components smaller than this
	CrustK        int          `json:"crust_k" yaml:"crust_k"`               // kcore removes nodes with core number <= k
}

// ScoreConfig configures the hit score transform.
type ScoreConfig struct {
	Alpha        float64 `json:"alpha" yaml:"alpha"`
	Beta         float64 `json:"beta" yaml:"beta"`
	MinUnhitFreq int     `json:"min_unhit_freq" yaml:"min_unhit_freq"`
}

// IndexConfig configures candidate sentence filtering.
type IndexConfig struct {
	MinOverlap int `json:"min_overlap" yaml:"min_overlap"` // Inclusive
	MinLength  int `json:"min_length" yaml:"min_length"`   // Inclusive, in words
	MaxLength  int `json:"max_length" yaml:"max_length"`   // Inclusive, in words
}

// SelectConfig configures the integer program.
type SelectConfig struct {
	WordLimit      int     `json:"word_limit" yaml:"word_limit"`
	MinWords       int     `json:"min_words" yaml:"min_words"` // 0 disables the lower bound
	MaxEntityCount int     `json:"max_entity_count" yaml:"max_entity_count"`
	EntityBonus    float64 `json:"entity_bonus" yaml:"entity_bonus"` // Sentence weight per covered entity
	MaxNodes       int     `json:"max_nodes" yaml:"max_nodes"`       // Branch and bound node limit
}

// SummaryConfig bundles every stage configuration of one run.
type SummaryConfig struct {
	Profile   Profile         `json:"profile" yaml:"profile"`
	Expansion ExpansionConfig `json:"expansion" yaml:"expansion"`
	Rank      RankConfig      `json:"rank" yaml:"rank"`
	Score     ScoreConfig     `json:"score" yaml:"score"`
	Index     IndexConfig     `json:"index" yaml:"index"`
	Select    SelectConfig    `json:"select" yaml:"select"`
}

// DefaultDocumentConfig returns the configuration for long, edited documents.
func DefaultDocumentConfig() SummaryConfig {
	return SummaryConfig{
		Profile: ProfileDocument,
		Expansion: ExpansionConfig{
			Strategy:     ExpansionRankedSynonymThenRelate,
			SynonymLevel: 2,
			RelateLevel:  1,
			MaxCount:     200,
			NeighborCap:  10,
			Decay:        0.1,
			SeedWeight:   1.0,
			HitThreshold: 2,
		},
		Rank: RankConfig{
			Strategy:      RankPageRank,
			WeightMode:    WeightBinary,
			TopN:          140,
			MinSize:       10,
			Damping:       0.8,
			TitleMass:     1.0,
			OtherMass:     0.5,
			MaxIterations: 100,
			Tolerance:     1e-6,
			ComponentSize: 10,
			CrustK:        2,
		},
		Score: ScoreConfig{
			Alpha:        1.1,
			Beta:         15,
			MinUnhitFreq: 4,
		},
		Index: IndexConfig{
			MinOverlap: 7,
			MinLength:  8,
			MaxLength:  50,
		},
		Select: SelectConfig{
			WordLimit:      250,
			MinWords:       150,
			MaxEntityCount: 10,
			EntityBonus:    2,
			MaxNodes:       5000,
		},
	}
}

// DefaultSparseConfig returns the configuration for short community answers.
// The word limit depends on the corpus, see SparseWordLimit.
func DefaultSparseConfig() SummaryConfig {
	config := DefaultDocumentConfig()
	config.Profile = ProfileSparse
	config.Rank.TopN = 30
	config.Score = ScoreConfig{
		Alpha:        0.8,
		Beta:         15,
		MinUnhitFreq: 2,
	}
	config.Index = IndexConfig{
		MinOverlap: 2,
		MinLength:  5,
		MaxLength:  20,
	}
	config.Select.WordLimit = 150
	config.Select.MinWords = 0
	return config
}

// DefaultConfig returns the configuration of the named profile.
func DefaultConfig(profile Profile) (SummaryConfig, bool) {
	switch profile {
	case ProfileDocument:
		return DefaultDocumentConfig(), true
	case ProfileSparse:
		return DefaultSparseConfig(), true
	}
	return SummaryConfig{}, false
}

// SparseWordLimit is a third of the answer words, capped at 150.
func SparseWordLimit(q *Question) int {
	limit := q.TotalWords() / 3
	if limit > 150 {
		return 150
	}
	return limit
}

// WordLimitFor returns the word limit of the configuration for q.
func (c SummaryConfig) WordLimitFor(q *Question) int {
	if c.Profile == ProfileSparse {
		if limit := SparseWordLimit(q); limit < c.Select.WordLimit {
			return limit
		}
	}
	return c.Select.WordLimit
}

// Validate rejects configurations no run could complete with.
func (c SummaryConfig) Validate() error {
	switch c.Expansion.Strategy {
	case ExpansionOnlySynonym, ExpansionSynonymThenRelate, ExpansionRankedSynonymThenRelate,
		ExpansionPrunedSynonymThenRelate, ExpansionWeightedRankedSynonymThenRelate:
	default:
		return helper.NewConfigurationError("validate config", "unknown expansion strategy %q", c.Expansion.Strategy)
	}
	switch c.Rank.Strategy {
	case RankPageRank, RankHITS, RankCC, RankKCore:
	default:
		return helper.NewConfigurationError("validate config", "unknown rank strategy %q", c.Rank.Strategy)
	}
	switch c.Rank.WeightMode {
	case WeightBinary, WeightStrength:
	default:
		return helper.NewConfigurationError("validate config", "unknown weight mode %q", c.Rank.WeightMode)
	}
	if c.Expansion.SynonymLevel < 0 || c.Expansion.RelateLevel < 0 {
		return helper.NewConfigurationError("validate config", "expansion levels must not be negative")
	}
	if c.Score.Beta <= 0 {
		return helper.NewConfigurationError("validate config", "beta must be positive, got %v", c.Score.Beta)
	}
	if c.Index.MinLength > c.Index.MaxLength {
		return helper.NewConfigurationError("validate config", "min length %d exceeds max length %d", c.Index.MinLength, c.Index.MaxLength)
	}
	if c.Select.WordLimit <= 0 {
		return helper.NewConfigurationError("validate config", "word limit must be positive, got %d", c.Select.WordLimit)
	}
	if c.Select.MinWords > c.Select.WordLimit {
		return helper.NewConfigurationError("validate config", "min words %d exceeds word limit %d", c.Select.MinWords, c.Select.WordLimit)
	}
	if c.Select.MaxEntityCount < 1 {
		return helper.NewConfigurationError("validate config", "max entity count must be at least 1")
	}
	return nil
}
