// Package enrich runs the bounded-concurrency NAV enrichment stage.
package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/lof-premium/internal/model"
	"github.com/yourorg/lof-premium/internal/retry"
)

// NavFetcher retrieves the chronological NAV history for one fund code.
type NavFetcher func(ctx context.Context, code string) ([]model.NavPoint, error)

// Options tunes the enrichment pool.
type Options struct {
	// Workers bounds concurrency toward the provider. Too high risks
	// throttling; 1 is the safe default and means effectively sequential.
	Workers int

	// Retry settings for each per-instrument NAV call
	MaxRetries int
	RetryDelay time.Duration
}

var (
	taskOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lofpremium_enrich_tasks_total",
			Help: "Enrichment task outcomes",
		},
		[]string{"outcome"},
	)
	batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lofpremium_enrich_batch_duration_seconds",
			Help:    "Wall time of the enrichment batch",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(taskOutcomes, batchDuration)
}

// Run submits one enrichment task per instrument to a pool of opts.Workers
// workers and aggregates results as they complete (completion order, not
// submission order). A single task's failure never aborts the others; every
// instrument yields exactly one result, so len(results) == len(instruments)
// and Succeeded+Failed sums to the submission count.
func Run(ctx context.Context, instruments []model.Instrument, fetchNav NavFetcher, opts Options) ([]model.EnrichmentResult, model.RunStats) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	logrus.WithFields(logrus.Fields{
		"instruments": len(instruments),
		"workers":     workers,
	}).Info("Starting NAV enrichment")
	start := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []model.EnrichmentResult
		stats   model.RunStats
	)

	tasks := make(chan model.Instrument)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for inst := range tasks {
				result := enrichOne(ctx, inst, fetchNav, opts)

				mu.Lock()
				results = append(results, result)
				if result.OK() {
					stats.Succeeded++
				} else {
					stats.Failed++
				}
				mu.Unlock()

				if result.OK() {
					taskOutcomes.WithLabelValues("success").Inc()
				} else {
					taskOutcomes.WithLabelValues("failure").Inc()
				}
			}
		}()
	}

	for _, inst := range instruments {
		tasks <- inst
	}
	close(tasks)
	wg.Wait()

	stats.Elapsed = time.Since(start)
	batchDuration.Observe(stats.Elapsed.Seconds())

	logrus.WithFields(logrus.Fields{
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"elapsed":   stats.Elapsed.Round(100 * time.Millisecond),
	}).Info("NAV enrichment complete")

	return results, stats
}

// enrichOne fetches the NAV history for a single instrument and derives its
// premium record. All failure modes are captured as a Failure result.
func enrichOne(ctx context.Context, inst model.Instrument, fetchNav NavFetcher, opts Options) model.EnrichmentResult {
	history, err := retry.Do(ctx, "nav history "+inst.Code, opts.MaxRetries, opts.RetryDelay,
		func(ctx context.Context) ([]model.NavPoint, error) {
			return fetchNav(ctx, inst.Code)
		})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"code": inst.Code,
			"name": inst.Name,
		}).Warnf("Enrichment failed: %v", err)
		return model.Failure(inst.Code, inst.Name, fmt.Sprintf("nav fetch failed: %v", err))
	}

	if len(history) == 0 {
		return model.Failure(inst.Code, inst.Name, "empty nav history")
	}

	latest := history[len(history)-1]
	if latest.UnitNav <= 0 {
		// Division by a zero NAV would be undefined; a non-positive NAV is a
		// data problem for this instrument, not a run-level one.
		return model.Failure(inst.Code, inst.Name, fmt.Sprintf("invalid unit nav %v on %s", latest.UnitNav, latest.Date))
	}

	rate := model.PremiumRate(inst.MarketPrice, latest.UnitNav)
	logrus.WithFields(logrus.Fields{
		"code":     inst.Code,
		"name":     inst.Name,
		"price":    inst.MarketPrice,
		"nav":      latest.UnitNav,
		"nav_date": latest.Date,
		"premium":  rate,
	}).Info("Enriched instrument")

	return model.Success(model.PremiumRecord{
		Code:        inst.Code,
		Name:        inst.Name,
		PremiumRate: rate,
		NavDate:     latest.Date,
	})
}
