package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/siherrmann/summer/helper"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Classification tells the Executor how to treat an error.
type Classification struct {
	Retryable     bool // Try again after a backoff
	RecordFailure bool // Count towards opening the breaker
}

// Classifier classifies the errors of an operation.
type Classifier func(err error) Classification

// Executor runs operations with retries, one circuit breaker per operation
// name and an optional shared rate limit. It is safe for concurrent use.
type Executor struct {
	config  Config
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewExecutor creates an Executor with normalized config.
func NewExecutor(config Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	config = config.normalize()

	e := &Executor{
		config:   config,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
	if config.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst)
	}
	return e
}

// Execute runs fn under the breaker of operation, retrying retryable errors.
// A nil classifier treats every error as permanent.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier Classifier) error {
	if fn == nil {
		return helper.NewError("execute", fmt.Errorf("operation callback is nil"))
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = PermanentErrors
	}

	if !e.config.BreakerEnabled {
		return e.executeWithRetry(ctx, op, fn, classifier)
	}

	breaker := e.circuitBreaker(op, classifier)
	_, err := breaker.Execute(func() (any, error) {
		return nil, e.executeWithRetry(ctx, op, fn, classifier)
	})
	return err
}

func (e *Executor) executeWithRetry(ctx context.Context, operation string, fn func(context.Context) error, classifier Classifier) error {
	backoff := e.config.RetryInitialBackoff

	var err error
	for attempt := 1; attempt <= e.config.RetryMaxAttempts; attempt++ {
		if e.limiter != nil {
			if waitErr := e.limiter.Wait(ctx); waitErr != nil {
				return waitErr
			}
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !classifier(err).Retryable || attempt == e.config.RetryMaxAttempts {
			return err
		}

		wait := min(backoff, e.config.RetryMaxBackoff)
		e.logger.Debug("Retrying operation",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff = min(time.Duration(float64(backoff)*e.config.RetryMultiplier), e.config.RetryMaxBackoff)
	}
	return err
}

func (e *Executor) circuitBreaker(operation string, classifier Classifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.config.BreakerHalfOpenMaxCalls,
		Timeout:     e.config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.config.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.config.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			e.logger.Warn("Circuit breaker changed state", slog.String("operation", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	e.breakers[operation] = breaker
	return breaker
}

// IsCircuitOpen reports whether err was returned by an open breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// PermanentErrors never retries and counts every error as a failure.
func PermanentErrors(error) Classification {
	return Classification{Retryable: false, RecordFailure: true}
}

// TransientErrors retries everything except cancellation and configuration
// errors, which also do not count as failures.
func TransientErrors(err error) Classification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || helper.IsConfigurationError(err) {
		return Classification{Retryable: false, RecordFailure: false}
	}
	return Classification{Retryable: true, RecordFailure: true}
}
