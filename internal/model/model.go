// Package model defines the core data structures for the LOF premium scanner.
package model

import (
	"math"
	"time"
)

// Instrument is a single listed fund from the exchange listing.
// The listing is fetched once per run and instruments are immutable afterwards.
type Instrument struct {
	// Code is the unique exchange identifier, e.g. "161116"
	Code string `json:"code"`

	// Name is the fund's display name as reported by the exchange
	Name string `json:"name"`

	// MarketPrice is the latest traded price
	MarketPrice float64 `json:"market_price"`
}

// NavPoint is one entry of a fund's net-asset-value history.
type NavPoint struct {
	// Date is the valuation date as reported by the provider, e.g. "2024-01-02"
	Date string `json:"date"`

	// UnitNav is the per-unit net asset value on that date
	UnitNav float64 `json:"unit_nav"`
}

// PremiumRecord is the derived premium figure for one fund.
type PremiumRecord struct {
	Code string `json:"code"`
	Name string `json:"name"`

	// PremiumRate is the premium in percent, rounded to 2 decimals.
	// Negative values denote a discount.
	PremiumRate float64 `json:"premium_rate"`

	// NavDate is the valuation date the rate was computed against
	NavDate string `json:"nav_date"`
}

// EnrichmentResult is the outcome of enriching one instrument with NAV data.
// Exactly one result is produced per instrument that survives pre-filtering.
type EnrichmentResult struct {
	Code string `json:"code"`
	Name string `json:"name"`

	// Record is set on success and nil on failure
	Record *PremiumRecord `json:"record,omitempty"`

	// Reason describes the failure when Record is nil
	Reason string `json:"reason,omitempty"`
}

// OK reports whether the enrichment succeeded.
func (r EnrichmentResult) OK() bool {
	return r.Record != nil
}

// Success builds a successful enrichment result.
func Success(rec PremiumRecord) EnrichmentResult {
	return EnrichmentResult{Code: rec.Code, Name: rec.Name, Record: &rec}
}

// Failure builds a failed enrichment result with a human-readable reason.
func Failure(code, name, reason string) EnrichmentResult {
	return EnrichmentResult{Code: code, Name: name, Reason: reason}
}

// WatchState classifies how a watchlist code resolved against the run's results.
type WatchState string

const (
	// WatchMatched means the fund trades at a premium and is in the report
	WatchMatched WatchState = "matched"

	// WatchDiscounted means NAV data was obtained but the fund trades at a discount
	WatchDiscounted WatchState = "discounted"

	// WatchNoData means no enrichment result exists for the code at all
	WatchNoData WatchState = "no-data"
)

// WatchEntry is the resolution of one watchlist code.
type WatchEntry struct {
	Code  string     `json:"code"`
	State WatchState `json:"state"`

	// Record is set only when State is WatchMatched
	Record *PremiumRecord `json:"record,omitempty"`
}

// RunStats carries enrichment accounting for observability.
type RunStats struct {
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// Submitted returns the total number of enrichment tasks that ran.
func (s RunStats) Submitted() int {
	return s.Succeeded + s.Failed
}

// SuccessRate returns the success ratio in percent, or 0 when nothing ran.
func (s RunStats) SuccessRate() float64 {
	if s.Submitted() == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Submitted()) * 100
}

// Report is the terminal artifact of one scanner run.
type Report struct {
	// RunID uniquely identifies the run across logs and exports
	RunID string `json:"run_id"`

	GeneratedAt time.Time `json:"generated_at"`

	// NavDate is the modal valuation date across the premium records,
	// the single effective "as-of" date for the batch
	NavDate string `json:"nav_date"`

	// Premiums holds all non-negative premium records, descending by rate
	Premiums []PremiumRecord `json:"premiums"`

	// Top holds the highest-premium records, at most the configured N
	Top []PremiumRecord `json:"top"`

	// Watchlist holds one entry per watched code, in watchlist order
	Watchlist []WatchEntry `json:"watchlist"`

	Stats RunStats `json:"stats"`
}

// PremiumRate computes the premium of price over nav in percent,
// rounded half away from zero to 2 decimals. nav must be positive.
func PremiumRate(price, nav float64) float64 {
	return Round2((price - nav) / nav * 100)
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
