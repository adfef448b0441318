package summer

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/siherrmann/summer/core/expansion"
	"github.com/siherrmann/summer/core/ilp"
	"github.com/siherrmann/summer/core/metrics"
	"github.com/siherrmann/summer/core/oracle"
	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/core/solver"
	"github.com/siherrmann/summer/database"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	loadSql "github.com/siherrmann/summer/sql"
)

// DefaultNgramSize is the longest n-gram the default entity finder looks up.
const DefaultNgramSize = 3

// Summary is the outcome of summarizing one question.
type Summary struct {
	QuestionID string                 `json:"question_id"`
	Title      []model.Entity         `json:"title_entities"`
	Expanded   []model.Entity         `json:"expanded_entities"`
	Report     model.ExpansionReport  `json:"report"`
	Result     *model.SelectionResult `json:"result"`
}

// Summer turns questions into extractive summaries: entity extraction,
// knowledge graph expansion, hit scoring and sentence selection.
// It is safe for concurrent use once configured.
type Summer struct {
	Config      model.SummaryConfig
	Oracle      pipeline.RelationOracle
	Pipeline    *pipeline.Pipeline
	Solver      solver.Solver
	Metrics     *metrics.PipelineMetrics // Optional, nil records nothing
	Service     string
	expansioner expansion.Expansioner
	// Logging
	log *slog.Logger
}

// NewSummer validates config and wires the default pipeline: n-gram entities
// looked up in the oracle, rule based sentence splitting and branch and
// bound selection.
func NewSummer(config model.SummaryConfig, relationOracle pipeline.RelationOracle, logger *slog.Logger) (*Summer, error) {
	if logger == nil {
		opts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, opts))
	}
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("new summer", err)
	}

	expansioner, err := expansion.New(config, relationOracle, logger)
	if err != nil {
		return nil, helper.NewError("new summer", err)
	}

	finder := pipeline.NgramEntityFinder(pipeline.OracleVocabulary{Oracle: relationOracle}, DefaultNgramSize)

	return &Summer{
		Config:      config,
		Oracle:      relationOracle,
		Pipeline:    pipeline.NewPipeline(finder, pipeline.SimpleNLP{}, logger),
		Solver:      solver.NewBranchAndBound(config.Select.MaxNodes, logger),
		Service:     "summer",
		expansioner: expansioner,
		log:         logger,
	}, nil
}

// SetPipeline replaces the entity extraction and sentence splitting pipeline.
func (s *Summer) SetPipeline(p *pipeline.Pipeline) {
	s.Pipeline = p
}

// SetFinder replaces the entity finder of the current pipeline.
func (s *Summer) SetFinder(finder pipeline.EntityFinder) {
	s.Pipeline = pipeline.NewPipeline(finder, s.Pipeline.NLP, s.log)
}

// SetMetrics records every run in m.
func (s *Summer) SetMetrics(m *metrics.PipelineMetrics) {
	s.Metrics = m
}

// UseNERFinder adds the entities of the NER model to the n-gram entities.
// Entities scoring below minScore are dropped.
func (s *Summer) UseNERFinder(minScore float32) error {
	ner, err := pipeline.DefaultEntityFinder(minScore)
	if err != nil {
		return helper.NewError("create ner finder", err)
	}
	ngram := pipeline.NgramEntityFinder(pipeline.OracleVocabulary{Oracle: s.Oracle}, DefaultNgramSize)
	s.SetFinder(pipeline.CombineFinders(ngram, ner))
	return nil
}

// Summarize runs every stage for q. Configuration errors fail the run, a
// question without usable answers yields an empty summary.
func (s *Summer) Summarize(ctx context.Context, q *model.Question) (summary *Summary, err error) {
	if q == nil {
		return nil, helper.NewConfigurationError("summarize", "question is nil")
	}
	logger := s.log.With(slog.String("question", q.ID))

	start := time.Now()
	s.Metrics.StartRun()
	defer func() {
		s.Metrics.FinishRun(s.Service, time.Since(start), err)
	}()

	stage := time.Now()
	title, err := s.Pipeline.TitleEntities(ctx, q.Title)
	if err != nil {
		return nil, helper.NewError("title entities", err)
	}
	records := s.Pipeline.Records(ctx, q.Nbest())
	s.Metrics.ObserveStage("extract", time.Since(stage))
	logger.Debug("Extracted entities", slog.Int("title", title.Len()), slog.Int("records", len(records)))

	stage = time.Now()
	expanded, err := s.expansioner.Expand(ctx, title)
	if err != nil {
		return nil, helper.NewError("expand", err)
	}
	report := expansion.Evaluate(expanded, records, s.Config.Expansion.HitThreshold)
	s.Metrics.ObserveStage("expand", time.Since(stage))

	stage = time.Now()
	config := s.selectConfig(q)
	selector := ilp.NewSelector(q.ID, config, s.Solver, s.Pipeline.NLP.SentenceLength, logger)
	result, err := selector.Run(ctx, expanded.Expanded, records)
	if err != nil {
		return nil, helper.NewError("select", err)
	}
	s.Metrics.ObserveStage("select", time.Since(stage))
	s.Metrics.ObserveSolverStatus(string(result.Status))

	logger.Info("Summarized question",
		slog.Int("expanded", report.ExpandedCount),
		slog.Float64("hit_ratio", report.HitRatio),
		slog.Int("sentences", len(result.Sentences)),
		slog.Int("length", result.Length),
		slog.Duration("duration", time.Since(start)),
	)

	return &Summary{
		QuestionID: q.ID,
		Title:      title.Items(),
		Expanded:   expanded.Expanded.Entities().Items(),
		Report:     report,
		Result:     result,
	}, nil
}

// selectConfig applies the per question word limit.
func (s *Summer) selectConfig(q *model.Question) model.SummaryConfig {
	config := s.Config
	config.Select.WordLimit = s.Config.WordLimitFor(q)
	if config.Select.MinWords > config.Select.WordLimit {
		config.Select.MinWords = config.Select.WordLimit
	}
	return config
}

// OpenPostgres connects to postgres, loads the SQL functions and returns a
// postgres oracle over the concept and assertion tables. The caller closes
// the returned database.
func OpenPostgres(config *helper.DatabaseConfiguration, embeddingDim int, options oracle.PostgresOptions, logger *slog.Logger) (*oracle.Postgres, *helper.Database, error) {
	db, err := helper.NewDatabase("summer", config, logger)
	if err != nil {
		return nil, nil, helper.NewError("connect postgres", err)
	}

	err = loadSql.Init(db.Instance)
	if err != nil {
		_ = db.Close()
		return nil, nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	concepts, err := database.NewConceptsDBHandler(db, embeddingDim, false)
	if err != nil {
		_ = db.Close()
		return nil, nil, helper.NewError("create concepts handler", err)
	}

	assertions, err := database.NewAssertionsDBHandler(db, false)
	if err != nil {
		_ = db.Close()
		return nil, nil, helper.NewError("create assertions handler", err)
	}

	postgres, err := oracle.NewPostgres(concepts, assertions, options, db.Logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return postgres, db, nil
}
