// Package filter pre-screens the instrument universe before the expensive
// per-instrument NAV fetches.
//
// This is a best-effort cost-reduction heuristic: wrongly skipping a
// genuinely premium fund is an accepted tradeoff for bounding external call
// volume.
package filter

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/lof-premium/internal/config"
	"github.com/yourorg/lof-premium/internal/model"
)

// Skip reasons, also used as tally keys.
const (
	ReasonAbnormalPrice = "abnormal price"
	ReasonBondOrMoney   = "bond/money-market fund"
	ReasonCodePrefix    = "money-market ETF prefix"
	ReasonPriceTooLow   = "price too low"
)

// Options holds the heuristic bounds and keyword lists the filter runs on.
type Options struct {
	MaxPrice         float64
	MinPrice         float64
	SkipKeywords     []string
	SkipCodePrefixes []string
}

// OptionsFromPolicy maps the configured policy onto filter options.
func OptionsFromPolicy(p config.Policy) Options {
	return Options{
		MaxPrice:         p.MaxPrice,
		MinPrice:         p.MinPrice,
		SkipKeywords:     p.SkipKeywords,
		SkipCodePrefixes: p.SkipCodePrefixes,
	}
}

// ShouldSkip decides whether an instrument is unlikely to show a premium.
// Rules are evaluated in order, first match wins.
func (o Options) ShouldSkip(code, name string, price float64) (bool, string) {
	if price <= 0 || price > o.MaxPrice {
		return true, ReasonAbnormalPrice
	}

	for _, keyword := range o.SkipKeywords {
		if strings.Contains(name, keyword) {
			return true, ReasonBondOrMoney
		}
	}

	for _, prefix := range o.SkipCodePrefixes {
		if strings.HasPrefix(code, prefix) {
			return true, ReasonCodePrefix
		}
	}

	if price < o.MinPrice {
		return true, ReasonPriceTooLow
	}

	return false, ""
}

// Apply returns the instruments that survive the heuristics plus a tally of
// skip reasons for diagnostics.
func Apply(instruments []model.Instrument, opts Options) ([]model.Instrument, map[string]int) {
	kept := make([]model.Instrument, 0, len(instruments))
	tally := map[string]int{}

	for _, inst := range instruments {
		if skip, reason := opts.ShouldSkip(inst.Code, inst.Name, inst.MarketPrice); skip {
			tally[reason]++
			continue
		}
		kept = append(kept, inst)
	}

	logrus.WithFields(logrus.Fields{
		"before":  len(instruments),
		"after":   len(kept),
		"skipped": len(instruments) - len(kept),
	}).Info("Pre-filter complete")
	for reason, count := range tally {
		logrus.WithFields(logrus.Fields{
			"reason": reason,
			"count":  count,
		}).Info("Skip reason")
	}

	return kept, tally
}
