package pipeline

import (
	"errors"
	"fmt"
)

// ProviderError wraps a listing or NAV fetch that failed after retries were
// exhausted.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider failure during %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// DataShapeError reports a listing payload lacking the required fields. The
// run aborts rather than guessing at the data shape.
type DataShapeError struct {
	Err error
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("listing data shape invalid: %v", e.Err)
}

func (e *DataShapeError) Unwrap() error { return e.Err }

// EmptyResultError reports a stage that produced nothing to work with: an
// empty listing, a fully filtered-out universe, zero successful enrichments,
// or zero non-negative premiums.
type EmptyResultError struct {
	Stage string
}

func (e *EmptyResultError) Error() string {
	switch e.Stage {
	case StageListing:
		return "no instruments returned by the listing"
	case StageFilter:
		return "no instruments to process after pre-filtering"
	case StageEnrich:
		return "no instrument could be enriched with NAV data"
	case StagePremium:
		return "no fund is trading at a premium"
	}
	return fmt.Sprintf("empty result at stage %s", e.Stage)
}

// SystemError wraps an unexpected panic caught at the pipeline boundary.
// The scanner always returns a structured result instead of crashing.
type SystemError struct {
	Panic any
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("unexpected pipeline failure: %v", e.Panic)
}

// RenderError formats a run-level failure as the user-facing line the CLI
// prints in place of a report.
func RenderError(err error) string {
	var (
		providerErr *ProviderError
		shapeErr    *DataShapeError
		emptyErr    *EmptyResultError
		systemErr   *SystemError
	)

	switch {
	case errors.As(err, &shapeErr):
		return fmt.Sprintf("ERROR: %v", shapeErr)
	case errors.As(err, &providerErr):
		return fmt.Sprintf("ERROR: market data unavailable: %v", providerErr)
	case errors.As(err, &emptyErr):
		return fmt.Sprintf("WARNING: %v", emptyErr)
	case errors.As(err, &systemErr):
		return fmt.Sprintf("ERROR: internal failure: %v", systemErr)
	default:
		return fmt.Sprintf("ERROR: %v", err)
	}
}
