package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/summer/model"
)

// RelationMiner extracts knowledge graph relations from free text.
type RelationMiner func(ctx context.Context, text string) ([]model.Relation, error)

// Triplet is one (head, relation, tail) statement generated by a REBEL model.
type Triplet struct {
	Head     string
	Relation string
	Tail     string
}

var tripletPattern = regexp.MustCompile(`<triplet>([^<]+)<subj>([^<]+)<obj>([^<]+)`)

// REBEL relation labels that map onto knowledge graph relation types.
// Every other label becomes RelatedTo.
var rebelRelationTypes = map[string]model.RelationType{
	"said_to_be_the_same_as": model.RelationSynonym,
	"different_from":         model.RelationAntonym,
	"subclass_of":            model.RelationIsA,
	"instance_of":            model.RelationIsA,
	"part_of":                model.RelationPartOf,
	"has_part":               model.RelationHasA,
	"has_effect":             model.RelationCauses,
	"has_cause":              model.RelationCauses,
	"use":                    model.RelationUsedFor,
	"uses":                   model.RelationUsedFor,
	"used_by":                model.RelationUsedFor,
}

// DefaultRelationMiner creates a relation miner from the REBEL text generation
// model at modelPath.
func DefaultRelationMiner(modelPath string) (RelationMiner, error) {
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TextGenerationConfig{
		ModelPath: modelPath,
		Name:      "rebel-pipeline",
	}
	generationPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create REBEL pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create REBEL pipeline: %w", err)
	}

	return func(ctx context.Context, text string) ([]model.Relation, error) {
		output, err := generationPipeline.RunPipeline(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate with REBEL: %w", err)
		}
		if len(output.Responses) == 0 || output.Responses[0] == "" {
			return nil, nil
		}
		return TripletRelations(parseTriplets(output.Responses[0])), nil
	}, nil
}

// TripletRelations turns triplets into weight one relations between the
// normalized head and tail. Triplets with an empty side are dropped.
func TripletRelations(triplets []Triplet) []model.Relation {
	relations := make([]model.Relation, 0, len(triplets))
	for _, t := range triplets {
		head := model.NormalizeEntity(t.Head)
		tail := model.NormalizeEntity(t.Tail)
		if head == "" || tail == "" || head == tail {
			continue
		}
		relations = append(relations, model.Relation{
			Start:  head,
			End:    tail,
			Type:   relationTypeFor(t.Relation),
			Weight: 1,
		})
	}
	return relations
}

// MineRelations runs miner over every text and merges duplicate relations.
// Texts the miner fails on are skipped and returned as the error count.
func MineRelations(ctx context.Context, miner RelationMiner, texts []string) ([]model.Relation, int, error) {
	type key struct {
		start, end model.Entity
		rel        model.RelationType
	}
	seen := make(map[key]struct{})
	var out []model.Relation
	failed := 0

	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return out, failed, err
		}
		relations, err := miner(ctx, text)
		if err != nil {
			failed++
			continue
		}
		for _, r := range relations {
			k := key{r.Start, r.End, r.Type}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, r)
		}
	}
	return out, failed, nil
}

// parseTriplets reads "<triplet> head <subj> tail <obj> relation" sequences.
func parseTriplets(generated string) []Triplet {
	var triplets []Triplet
	for _, match := range tripletPattern.FindAllStringSubmatch(generated, -1) {
		triplets = append(triplets, Triplet{
			Head:     strings.TrimSpace(match[1]),
			Tail:     strings.TrimSpace(match[2]),
			Relation: strings.TrimSpace(match[3]),
		})
	}
	return triplets
}

func normalizeRelationLabel(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	return strings.ReplaceAll(normalized, "-", "_")
}

func relationTypeFor(label string) model.RelationType {
	if t, ok := rebelRelationTypes[normalizeRelationLabel(label)]; ok {
		return t
	}
	return model.RelationRelatedTo
}
