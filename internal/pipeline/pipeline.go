// Package pipeline drives one scanner run from listing fetch to report.
package pipeline

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/lof-premium/internal/circuitbreaker"
	"github.com/yourorg/lof-premium/internal/config"
	"github.com/yourorg/lof-premium/internal/enrich"
	"github.com/yourorg/lof-premium/internal/fetch"
	"github.com/yourorg/lof-premium/internal/filter"
	"github.com/yourorg/lof-premium/internal/model"
	otelsetup "github.com/yourorg/lof-premium/internal/otel"
	"github.com/yourorg/lof-premium/internal/priority"
	"github.com/yourorg/lof-premium/internal/report"
	"github.com/yourorg/lof-premium/internal/retry"
)

// Pipeline stages, in run order. A run moves Fetching -> Filtering ->
// Enriching -> Ranking and terminates in Reported, or in Errored from any
// stage. There is no whole-run retry; only individual calls are retried.
const (
	StageListing = "listing"
	StageFilter  = "filter"
	StageEnrich  = "enrich"
	StagePremium = "premium"
)

// Runner executes the fetch-filter-prioritize-enrich-rank pipeline.
type Runner struct {
	cfg      config.Config
	provider fetch.Provider
	breaker  *circuitbreaker.Breaker
}

// New creates a Runner. The circuit breaker guards the NAV endpoint and is
// disabled when the configured threshold is zero.
func New(cfg config.Config, provider fetch.Provider) *Runner {
	return &Runner{
		cfg:      cfg,
		provider: provider,
		breaker:  circuitbreaker.New(cfg.BreakerThreshold, cfg.BreakerCooldown),
	}
}

// RunSafe executes the pipeline with a panic boundary: any unexpected panic
// is logged with full diagnostic detail and converted into a SystemError so
// the host process always receives a structured result.
func (r *Runner) RunSafe(ctx context.Context) (rep *model.Report, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithField("stack", string(debug.Stack())).Errorf("Pipeline panicked: %v", rec)
			rep, err = nil, &SystemError{Panic: rec}
		}
	}()
	return r.Run(ctx)
}

// Run executes one pipeline pass and returns the terminal report, or a
// run-level error from the taxonomy in errors.go.
func (r *Runner) Run(ctx context.Context) (*model.Report, error) {
	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)
	log.WithFields(logrus.Fields{
		"workers":         r.cfg.WorkerCount,
		"max_instruments": r.cfg.MaxInstruments,
		"watchlist":       r.cfg.Watchlist,
	}).Info("Starting premium scan")

	// Fetching
	ctx, span := otelsetup.Tracer().Start(ctx, "pipeline.listing")
	instruments, err := retry.Do(ctx, "instrument listing", r.cfg.MaxRetries, r.cfg.ListingRetryDelay,
		r.provider.ListInstruments)
	span.End()
	if err != nil {
		otelsetup.RecordError(ctx, err)
		if errors.Is(err, fetch.ErrMissingColumns) {
			return nil, &DataShapeError{Err: err}
		}
		return nil, &ProviderError{Op: StageListing, Err: err}
	}
	if len(instruments) == 0 {
		return nil, &EmptyResultError{Stage: StageListing}
	}
	log.Infof("Listing fetched: %d instruments", len(instruments))

	if r.cfg.MaxInstruments > 0 && len(instruments) > r.cfg.MaxInstruments {
		log.Infof("Capping universe to first %d instruments", r.cfg.MaxInstruments)
		instruments = instruments[:r.cfg.MaxInstruments]
	}

	// Filtering
	_, span = otelsetup.Tracer().Start(ctx, "pipeline.filter")
	kept, _ := filter.Apply(instruments, filter.OptionsFromPolicy(r.cfg.Policy))
	span.End()
	if len(kept) == 0 {
		return nil, &EmptyResultError{Stage: StageFilter}
	}

	ordered, priorityCount := priority.Reorder(kept, r.cfg.Policy.PriorityKeywords)
	log.WithFields(logrus.Fields{
		"priority": priorityCount,
		"normal":   len(ordered) - priorityCount,
	}).Info("Priority ordering applied")

	// Enriching
	ctx, span = otelsetup.Tracer().Start(ctx, "pipeline.enrich")
	results, stats := enrich.Run(ctx, ordered, r.guardedNavFetch, enrich.Options{
		Workers:    r.cfg.WorkerCount,
		MaxRetries: r.cfg.MaxRetries,
		RetryDelay: r.cfg.NavRetryDelay,
	})
	span.End()
	if stats.Succeeded == 0 {
		return nil, &EmptyResultError{Stage: StageEnrich}
	}

	// Ranking
	_, span = otelsetup.Tracer().Start(ctx, "pipeline.rank")
	ranking := report.Rank(results)
	span.End()
	if len(ranking.Premiums) == 0 {
		return nil, &EmptyResultError{Stage: StagePremium}
	}

	rep := report.Build(runID, ranking, r.cfg.Watchlist, stats, r.cfg.TopN)
	log.WithFields(logrus.Fields{
		"premiums": len(rep.Premiums),
		"nav_date": rep.NavDate,
	}).Info("Report assembled")

	return rep, nil
}

// guardedNavFetch is the per-attempt NAV call handed to the enrichment pool,
// with circuit breaker accounting around the provider. When the breaker is
// open the call fails fast; the instrument surfaces as an ordinary
// per-item failure and the rest of the batch is unaffected.
func (r *Runner) guardedNavFetch(ctx context.Context, code string) ([]model.NavPoint, error) {
	if err := r.breaker.Allow(); err != nil {
		return nil, err
	}

	points, err := r.provider.NavHistory(ctx, code)
	if err != nil {
		r.breaker.Failure()
		return nil, err
	}
	r.breaker.Success()
	return points, nil
}
