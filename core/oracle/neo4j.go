package oracle

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
)

const (
	neo4jLookupQuery = `
		MATCH (c:Concept {name: $name})-[r:RELATES]-(:Concept)
		RETURN startNode(r).name AS start, endNode(r).name AS end, r.rel AS rel, r.weight AS weight
	`
	neo4jUpsertQuery = `
		UNWIND $relations AS relation
		MERGE (s:Concept {name: relation.start})
		MERGE (e:Concept {name: relation.end})
		MERGE (s)-[r:RELATES {rel: relation.rel}]->(e)
		SET r.weight = relation.weight
	`
	neo4jConstraintQuery = `CREATE CONSTRAINT concept_name IF NOT EXISTS FOR (c:Concept) REQUIRE c.name IS UNIQUE`
)

// queryRunner runs cypher in managed transactions and returns the records
// as maps keyed by column.
type queryRunner interface {
	read(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	write(ctx context.Context, query string, params map[string]any) error
	close(ctx context.Context) error
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (d *driverRunner) read(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return records.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records := result.([]*neo4j.Record)
	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

func (d *driverRunner) write(ctx context.Context, query string, params map[string]any) error {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: d.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

func (d *driverRunner) close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// Neo4jOracle reads relations from a neo4j graph of (:Concept {name})
// nodes joined by [:RELATES {rel, weight}] edges.
type Neo4jOracle struct {
	*pipeline.LookupOracle
	runner queryRunner
}

// NewNeo4jOracle connects to neo4j and verifies the connection.
func NewNeo4jOracle(ctx context.Context, config *helper.Neo4jConfiguration) (*Neo4jOracle, error) {
	if config == nil || config.URI == "" {
		return nil, helper.NewConfigurationError("neo4j oracle", "uri must be set")
	}

	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, helper.NewError("neo4j driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, helper.NewError("neo4j connectivity", err)
	}

	return newNeo4jOracle(&driverRunner{driver: driver, database: config.Database}), nil
}

func newNeo4jOracle(runner queryRunner) *Neo4jOracle {
	o := &Neo4jOracle{runner: runner}
	o.LookupOracle = pipeline.OracleFromLookup(o.lookup)
	return o
}

// Close closes the driver.
func (o *Neo4jOracle) Close(ctx context.Context) error {
	return o.runner.close(ctx)
}

// Seed creates the name constraint and merges relations into the graph.
// Seeding the same relations twice leaves the graph unchanged.
func (o *Neo4jOracle) Seed(ctx context.Context, relations []model.Relation) error {
	if err := o.runner.write(ctx, neo4jConstraintQuery, nil); err != nil {
		return helper.NewError("neo4j constraint", err)
	}
	if len(relations) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(relations))
	for _, r := range relations {
		rows = append(rows, map[string]any{
			"start":  string(model.NormalizeEntity(string(r.Start))),
			"end":    string(model.NormalizeEntity(string(r.End))),
			"rel":    string(r.Type.Name()),
			"weight": r.Weight,
		})
	}
	if err := o.runner.write(ctx, neo4jUpsertQuery, map[string]any{"relations": rows}); err != nil {
		return helper.NewError("neo4j seed", err)
	}
	return nil
}

func (o *Neo4jOracle) lookup(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	rows, err := o.runner.read(ctx, neo4jLookupQuery, map[string]any{"name": string(e)})
	if err != nil {
		return nil, helper.NewError("neo4j lookup", err)
	}

	relations := make([]model.Relation, 0, len(rows))
	for _, row := range rows {
		r, err := relationFromRow(row)
		if err != nil {
			return nil, helper.NewError("neo4j lookup", err)
		}
		relations = append(relations, r)
	}
	return relations, nil
}

func relationFromRow(row map[string]any) (model.Relation, error) {
	start, okStart := row["start"].(string)
	end, okEnd := row["end"].(string)
	rel, okRel := row["rel"].(string)
	if !okStart || !okEnd || !okRel {
		return model.Relation{}, fmt.Errorf("incomplete relation record %v", row)
	}

	var weight float64
	switch w := row["weight"].(type) {
	case float64:
		weight = w
	case int64:
		weight = float64(w)
	case nil:
		weight = 1
	default:
		return model.Relation{}, fmt.Errorf("unexpected weight type %T", w)
	}

	return model.Relation{
		Start:  model.Entity(start),
		End:    model.Entity(end),
		Type:   model.RelationType(rel).Name(),
		Weight: weight,
	}, nil
}
