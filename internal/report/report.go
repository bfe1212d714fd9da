// Package report ranks enrichment results and assembles the run's terminal
// report. Everything here is pure computation over already-fetched data.
package report

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/lof-premium/internal/model"
)

// Ranking holds the ranked premium view over a set of enrichment results.
// The full signed record list is retained internally so watchlist resolution
// can tell a discounted fund from one with no data, and so discount
// reporting can be added at presentation time later.
type Ranking struct {
	// Premiums are the non-negative records, descending by rate, stable for ties
	Premiums []model.PremiumRecord

	// NavDate is the modal valuation date across Premiums
	NavDate string

	all []model.EnrichmentResult
}

// Rank filters the successes to non-negative premiums and sorts them
// descending by rate. The sort is stable: ties keep their prior relative
// order, so ranking the same result set twice yields identical output.
func Rank(results []model.EnrichmentResult) Ranking {
	premiums := make([]model.PremiumRecord, 0, len(results))
	for _, r := range results {
		if r.OK() && r.Record.PremiumRate >= 0 {
			premiums = append(premiums, *r.Record)
		}
	}

	sort.SliceStable(premiums, func(i, j int) bool {
		return premiums[i].PremiumRate > premiums[j].PremiumRate
	})

	if len(premiums) > 0 {
		logrus.WithFields(logrus.Fields{
			"count": len(premiums),
			"min":   premiums[len(premiums)-1].PremiumRate,
			"max":   premiums[0].PremiumRate,
		}).Info("Premium ranking complete")
	}

	return Ranking{
		Premiums: premiums,
		NavDate:  modalNavDate(premiums),
		all:      results,
	}
}

// Top returns the first n premium records.
func (r Ranking) Top(n int) []model.PremiumRecord {
	if n > len(r.Premiums) {
		n = len(r.Premiums)
	}
	top := make([]model.PremiumRecord, n)
	copy(top, r.Premiums[:n])
	return top
}

// ResolveWatchlist cross-references the watched codes against the premium
// set. A code absent from the premiums is classified as discounted when a
// raw enrichment success exists for it with a negative rate, and as no-data
// otherwise.
func (r Ranking) ResolveWatchlist(codes []string) []model.WatchEntry {
	entries := make([]model.WatchEntry, 0, len(codes))

	for _, code := range codes {
		entry := model.WatchEntry{Code: code, State: model.WatchNoData}

		for i := range r.Premiums {
			if r.Premiums[i].Code == code {
				rec := r.Premiums[i]
				entry.State = model.WatchMatched
				entry.Record = &rec
				break
			}
		}

		if entry.State != model.WatchMatched {
			for _, res := range r.all {
				if res.Code == code && res.OK() && res.Record.PremiumRate < 0 {
					entry.State = model.WatchDiscounted
					break
				}
			}
		}

		entries = append(entries, entry)
	}

	return entries
}

// Build assembles the terminal report for a run.
func Build(runID string, ranking Ranking, watchlist []string, stats model.RunStats, topN int) *model.Report {
	return &model.Report{
		RunID:       runID,
		GeneratedAt: time.Now(),
		NavDate:     ranking.NavDate,
		Premiums:    ranking.Premiums,
		Top:         ranking.Top(topN),
		Watchlist:   ranking.ResolveWatchlist(watchlist),
		Stats:       stats,
	}
}

// modalNavDate returns the most frequent valuation date; ties break by first
// appearance in the record order.
func modalNavDate(records []model.PremiumRecord) string {
	if len(records) == 0 {
		return ""
	}

	counts := map[string]int{}
	var order []string
	for _, rec := range records {
		if counts[rec.NavDate] == 0 {
			order = append(order, rec.NavDate)
		}
		counts[rec.NavDate]++
	}

	best := order[0]
	for _, date := range order[1:] {
		if counts[date] > counts[best] {
			best = date
		}
	}
	return best
}
