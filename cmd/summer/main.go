// Command summer writes an extractive summary for every question of a corpus.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/siherrmann/summer"
	"github.com/siherrmann/summer/core/metrics"
	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	"golang.org/x/sync/errgroup"
)

type flags struct {
	Questions   string
	Out         string
	Profile     string
	Config      string
	Strategy    string
	Rank        string
	Parallel    int
	MetricsAddr string
	Timeout     time.Duration
	NER         float64
	Debug       bool
	Oracle      oracleOptions
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.Questions, "questions", "", "question corpus (yaml or json)")
	flag.StringVar(&f.Out, "out", "summaries", "output directory")
	flag.StringVar(&f.Profile, "profile", string(model.ProfileSparse), "corpus profile: document or sparse")
	flag.StringVar(&f.Config, "config", "", "yaml file overriding the profile configuration")
	flag.StringVar(&f.Strategy, "strategy", "", "expansion strategy override")
	flag.StringVar(&f.Rank, "rank", "", "rank strategy override")
	flag.IntVar(&f.Parallel, "parallel", 4, "questions summarized at once")
	flag.StringVar(&f.MetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	flag.DurationVar(&f.Timeout, "timeout", 2*time.Minute, "time limit per question")
	flag.Float64Var(&f.NER, "ner", 0, "add NER entities scoring at least this value, 0 disables")
	flag.BoolVar(&f.Debug, "debug", false, "log at debug level")
	flag.StringVar(&f.Oracle.Backend, "oracle", backendStatic, "knowledge graph: static, postgres or neo4j")
	flag.StringVar(&f.Oracle.Relations, "relations", "", "relation file, seeds postgres and neo4j")
	flag.IntVar(&f.Oracle.EmbeddingDim, "embedding-dim", pipeline.EmbeddingDim, "concept embedding dimension (postgres)")
	flag.BoolVar(&f.Oracle.Embed, "embed", false, "embed seeded concepts (postgres)")
	flag.IntVar(&f.Oracle.SimilarLimit, "similar", 0, "similar concepts added per lookup (postgres)")
	flag.Float64Var(&f.Oracle.Similarity, "similarity", 0.7, "minimum similarity of added concepts (postgres)")
	flag.StringVar(&f.Oracle.MineModel, "mine-model", "", "REBEL onnx model mining extra relations from the answers")
	flag.Parse()
	return f
}

func main() {
	_ = godotenv.Load()
	f := parseFlags()

	level := slog.LevelInfo
	if f.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	})).With(slog.String("run", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed, err := run(ctx, f, logger)
	if err != nil {
		logger.Error("Run failed", slog.Any("error", err))
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(2)
	}
}

// run summarizes every question and returns the number of failed questions.
func run(ctx context.Context, f flags, logger *slog.Logger) (int, error) {
	if f.Questions == "" {
		return 0, helper.NewConfigurationError("run", "-questions is required")
	}
	if f.Parallel < 1 {
		f.Parallel = 1
	}

	config, err := loadConfig(f.Profile, f.Config, f.Strategy, f.Rank)
	if err != nil {
		return 0, err
	}
	questions, err := loadQuestions(f.Questions)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(f.Out, 0o755); err != nil {
		return 0, helper.NewError("create output directory", err)
	}

	m := metrics.NewPipelineMetrics("summer")
	if f.MetricsAddr != "" {
		shutdown := serveMetrics(f.MetricsAddr, m, logger)
		defer shutdown()
	}

	var texts []string
	if f.Oracle.MineModel != "" {
		for i := range questions {
			texts = append(texts, questions[i].Nbest()...)
		}
	}

	relationOracle, closeOracle, err := openOracle(ctx, f.Oracle, config, texts, m, logger)
	if err != nil {
		return 0, err
	}
	defer closeOracle()

	s, err := summer.NewSummer(config.Summary, relationOracle, logger)
	if err != nil {
		return 0, err
	}
	s.SetMetrics(m)
	if f.NER > 0 {
		if err := s.UseNERFinder(float32(f.NER)); err != nil {
			return 0, err
		}
	}

	logger.Info("Summarizing questions",
		slog.Int("questions", len(questions)),
		slog.String("profile", f.Profile),
		slog.String("strategy", string(config.Summary.Expansion.Strategy)),
		slog.String("oracle", f.Oracle.Backend),
	)

	var failed atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.Parallel)
	for i := range questions {
		q := &questions[i]
		g.Go(func() error {
			if err := summarizeOne(gCtx, s, q, f.Out, f.Timeout, logger); err != nil {
				failed.Add(1)
				logger.Error("Failed to summarize question", slog.String("question", q.ID), slog.Any("error", err))
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(failed.Load()), helper.NewError("summarize questions", err)
	}

	logger.Info("Finished", slog.Int("questions", len(questions)), slog.Int64("failed", failed.Load()))
	return int(failed.Load()), nil
}

func summarizeOne(ctx context.Context, s *summer.Summer, q *model.Question, out string, timeout time.Duration, logger *slog.Logger) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	summary, err := s.Summarize(ctx, q)
	if err != nil {
		return err
	}
	path, err := writeSummary(out, q, summary)
	if err != nil {
		return err
	}
	logger.Debug("Wrote summary", slog.String("question", q.ID), slog.String("file", path), slog.String("status", string(summary.Result.Status)))
	return nil
}

func serveMetrics(addr string, m *metrics.PipelineMetrics, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Serving metrics", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", slog.Any("error", err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Metrics shutdown failed", slog.Any("error", err))
		}
	}
}
