package main

import (
	"context"
	"log/slog"

	"github.com/siherrmann/summer"
	"github.com/siherrmann/summer/core/metrics"
	"github.com/siherrmann/summer/core/oracle"
	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
)

const (
	backendStatic   = "static"
	backendPostgres = "postgres"
	backendNeo4j    = "neo4j"
)

// oracleOptions are the flags that pick and seed the knowledge graph.
type oracleOptions struct {
	Backend      string
	Relations    string
	EmbeddingDim int
	Embed        bool
	SimilarLimit int
	Similarity   float64
	MineModel    string
}

// openOracle opens the backend, seeds it from the relation file and the
// relations mined from texts, and wraps it in a cache over a resilient
// executor. The returned close function releases the backend.
func openOracle(ctx context.Context, options oracleOptions, config runConfig, texts []string, m *metrics.PipelineMetrics, logger *slog.Logger) (pipeline.RelationOracle, func(), error) {
	static, err := seedRelations(ctx, options, texts, logger)
	if err != nil {
		return nil, nil, err
	}

	var backend pipeline.RelationOracle
	closeBackend := func() {}

	switch options.Backend {
	case backendStatic:
		if static == nil {
			return nil, nil, helper.NewConfigurationError("open oracle", "the static oracle needs -relations or -mine-model")
		}
		backend = static
	case backendPostgres:
		dbConfig, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, nil, err
		}
		postgres, db, err := summer.OpenPostgres(dbConfig, options.EmbeddingDim, oracle.PostgresOptions{
			SimilarLimit:     options.SimilarLimit,
			SimilarThreshold: options.Similarity,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		closeBackend = func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database", slog.Any("error", err))
			}
		}
		if static != nil {
			var embed pipeline.EmbedFunc
			if options.Embed {
				embed, err = pipeline.DefaultEmbedder()
				if err != nil {
					closeBackend()
					return nil, nil, helper.NewError("create embedder", err)
				}
			}
			if err := postgres.Import(ctx, static.Relations(), embed); err != nil {
				closeBackend()
				return nil, nil, err
			}
		}
		backend = postgres
	case backendNeo4j:
		neo4jConfig, err := helper.NewNeo4jConfiguration()
		if err != nil {
			return nil, nil, err
		}
		graph, err := oracle.NewNeo4jOracle(ctx, neo4jConfig)
		if err != nil {
			return nil, nil, err
		}
		closeBackend = func() {
			if err := graph.Close(context.Background()); err != nil {
				logger.Error("Failed to close neo4j driver", slog.Any("error", err))
			}
		}
		if static != nil {
			if err := graph.Seed(ctx, static.Relations()); err != nil {
				closeBackend()
				return nil, nil, err
			}
			logger.Info("Seeded neo4j", slog.Int("relations", static.Len()))
		}
		backend = graph
	default:
		return nil, nil, helper.NewConfigurationError("open oracle", "unknown oracle %q (use static, postgres or neo4j)", options.Backend)
	}

	resilient := oracle.NewResilient(backend, options.Backend, config.Resilience, m, logger)
	return oracle.NewCache(resilient), closeBackend, nil
}

// seedRelations collects the relations of the relation file and, with a mine
// model, the relations mined from texts. Without either it returns nil.
func seedRelations(ctx context.Context, options oracleOptions, texts []string, logger *slog.Logger) (*oracle.Static, error) {
	var relations []model.Relation
	if options.Relations != "" {
		static, err := oracle.LoadStatic(options.Relations)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded relations", slog.String("file", options.Relations), slog.Int("relations", static.Len()))
		relations = static.Relations()
	}

	if options.MineModel != "" {
		miner, err := pipeline.DefaultRelationMiner(options.MineModel)
		if err != nil {
			return nil, helper.NewError("create relation miner", err)
		}
		mined, failed, err := pipeline.MineRelations(ctx, miner, texts)
		if err != nil {
			return nil, helper.NewError("mine relations", err)
		}
		logger.Info("Mined relations", slog.Int("relations", len(mined)), slog.Int("texts", len(texts)), slog.Int("failed", failed))
		relations = append(relations, mined...)
	}

	if options.Relations == "" && options.MineModel == "" {
		return nil, nil
	}
	return oracle.NewStatic(relations)
}
