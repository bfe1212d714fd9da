// Package priority front-loads premium-prone fund categories so that under a
// constrained worker pool the high-value instruments are enriched first.
package priority

import (
	"strings"

	"github.com/yourorg/lof-premium/internal/model"
)

// Reorder partitions instruments into a priority bucket (name matches one of
// the keywords) and a normal bucket, preserving the original relative order
// within each, and returns the concatenation plus the priority count.
//
// This is a stable, deterministic reordering, not a dynamic priority queue.
func Reorder(instruments []model.Instrument, keywords []string) ([]model.Instrument, int) {
	priorityBucket := make([]model.Instrument, 0, len(instruments))
	normalBucket := make([]model.Instrument, 0, len(instruments))

	for _, inst := range instruments {
		if matchesAny(inst.Name, keywords) {
			priorityBucket = append(priorityBucket, inst)
		} else {
			normalBucket = append(normalBucket, inst)
		}
	}

	return append(priorityBucket, normalBucket...), len(priorityBucket)
}

func matchesAny(name string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}
