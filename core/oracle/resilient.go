package oracle

import (
	"context"
	"log/slog"

	"github.com/siherrmann/summer/core/metrics"
	"github.com/siherrmann/summer/core/pipeline"
	"github.com/siherrmann/summer/core/resilience"
	"github.com/siherrmann/summer/model"
)

// Resilient retries the lookups of a remote oracle and stops calling it
// while its circuit breaker is open. Every lookup is counted in metrics
// under the backend name.
type Resilient struct {
	*pipeline.LookupOracle
	next     pipeline.RelationOracle
	backend  string
	executor *resilience.Executor
	metrics  *metrics.PipelineMetrics
	logger   *slog.Logger
}

// NewResilient wraps next. A nil metrics records nothing.
func NewResilient(next pipeline.RelationOracle, backend string, config resilience.Config, m *metrics.PipelineMetrics, logger *slog.Logger) *Resilient {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resilient{
		next:     next,
		backend:  backend,
		executor: resilience.NewExecutor(config, logger),
		metrics:  m,
		logger:   logger.With(slog.String("backend", backend)),
	}
	r.LookupOracle = pipeline.OracleFromLookup(r.lookup)
	return r
}

func (r *Resilient) lookup(ctx context.Context, e model.Entity) ([]model.Relation, error) {
	var relations []model.Relation
	err := r.executor.Execute(ctx, r.backend+".lookup", func(ctx context.Context) error {
		var err error
		relations, err = r.next.Lookup(ctx, e)
		return err
	}, resilience.TransientErrors)
	r.metrics.ObserveLookup(r.backend, err)
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			r.logger.Debug("Skipping lookup, circuit open", slog.String("entity", e.String()))
		}
		return nil, err
	}
	return relations, nil
}
