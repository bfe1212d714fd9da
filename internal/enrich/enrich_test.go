package enrich

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/lof-premium/internal/model"
)

func instruments(n int) []model.Instrument {
	out := make([]model.Instrument, n)
	for i := range out {
		out[i] = model.Instrument{
			Code:        fmt.Sprintf("16%04d", i),
			Name:        fmt.Sprintf("fund %d", i),
			MarketPrice: 1.10,
		}
	}
	return out
}

func navFor(points map[string][]model.NavPoint, errs map[string]error) NavFetcher {
	return func(ctx context.Context, code string) ([]model.NavPoint, error) {
		if err, ok := errs[code]; ok {
			return nil, err
		}
		return points[code], nil
	}
}

func TestRunEnrichesAllInstruments(t *testing.T) {
	insts := instruments(4)
	points := map[string][]model.NavPoint{}
	for _, inst := range insts {
		points[inst.Code] = []model.NavPoint{
			{Date: "2024-01-01", UnitNav: 0.95},
			{Date: "2024-01-02", UnitNav: 1.00},
		}
	}

	results, stats := Run(context.Background(), insts, navFor(points, nil), Options{Workers: 2})

	require.Len(t, results, 4)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	for _, r := range results {
		require.True(t, r.OK())
		// Latest observation is the last history entry
		assert.Equal(t, "2024-01-02", r.Record.NavDate)
		assert.Equal(t, 10.0, r.Record.PremiumRate)
	}
}

// One failing task never aborts the others, and counts sum to the
// submission count.
func TestRunIsolatesFailures(t *testing.T) {
	insts := instruments(5)
	points := map[string][]model.NavPoint{}
	for _, inst := range insts {
		points[inst.Code] = []model.NavPoint{{Date: "2024-01-02", UnitNav: 1.00}}
	}
	errs := map[string]error{insts[2].Code: errors.New("upstream hiccup")}

	results, stats := Run(context.Background(), insts, navFor(points, errs), Options{Workers: 3})

	require.Len(t, results, 5)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 5, stats.Submitted())

	var failed []string
	var succeeded []string
	for _, r := range results {
		if r.OK() {
			succeeded = append(succeeded, r.Code)
		} else {
			failed = append(failed, r.Code)
			assert.Contains(t, r.Reason, "nav fetch failed")
		}
	}
	assert.Equal(t, []string{insts[2].Code}, failed)
	sort.Strings(succeeded)
	assert.Len(t, succeeded, 4)
}

func TestRunZeroNavIsPerInstrumentFailure(t *testing.T) {
	insts := instruments(1)
	points := map[string][]model.NavPoint{
		insts[0].Code: {{Date: "2024-01-02", UnitNav: 0}},
	}

	results, stats := Run(context.Background(), insts, navFor(points, nil), Options{Workers: 1})

	require.Len(t, results, 1)
	assert.Equal(t, 0, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.False(t, results[0].OK())
	assert.Contains(t, results[0].Reason, "invalid unit nav")
}

func TestRunEmptyHistoryIsPerInstrumentFailure(t *testing.T) {
	insts := instruments(1)

	results, _ := Run(context.Background(), insts, navFor(nil, nil), Options{Workers: 1})

	require.Len(t, results, 1)
	assert.False(t, results[0].OK())
	assert.Equal(t, "empty nav history", results[0].Reason)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	insts := instruments(1)
	var calls int32
	fetcher := func(ctx context.Context, code string) ([]model.NavPoint, error) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			return nil, errors.New("transient")
		}
		return []model.NavPoint{{Date: "2024-01-02", UnitNav: 1.00}}, nil
	}

	results, stats := Run(context.Background(), insts, fetcher, Options{Workers: 1, MaxRetries: 3})

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, stats.Succeeded)
	require.True(t, results[0].OK())
}

func TestRunDefaultsToOneWorker(t *testing.T) {
	insts := instruments(3)
	var inFlight, maxInFlight int32
	fetcher := func(ctx context.Context, code string) ([]model.NavPoint, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			prev := atomic.LoadInt32(&maxInFlight)
			if cur <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, cur) {
				break
			}
		}
		defer atomic.AddInt32(&inFlight, -1)
		return []model.NavPoint{{Date: "2024-01-02", UnitNav: 1.00}}, nil
	}

	_, stats := Run(context.Background(), insts, fetcher, Options{Workers: 0})

	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight), "workers<1 runs sequentially")
}

func TestRunPremiumComputation(t *testing.T) {
	insts := []model.Instrument{{Code: "161116", Name: "gold", MarketPrice: 2.10}}
	points := map[string][]model.NavPoint{
		"161116": {{Date: "2024-01-02", UnitNav: 2.00}},
	}

	results, _ := Run(context.Background(), insts, navFor(points, nil), Options{Workers: 1})

	require.True(t, results[0].OK())
	assert.Equal(t, 5.0, results[0].Record.PremiumRate)
}
