// Package fetch provides clients for the market-data sources the pipeline
// consumes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/yourorg/lof-premium/internal/config"
	"github.com/yourorg/lof-premium/internal/model"
	"golang.org/x/time/rate"
)

// ErrMissingColumns is returned by ListInstruments when the listing payload
// lacks the required code/name/price fields. The pipeline aborts the run on
// it rather than guessing at the data shape.
var ErrMissingColumns = errors.New("listing payload missing required fields")

// Provider is the market-data source the pipeline depends on.
type Provider interface {
	// ListInstruments returns the tradable fund universe. The result must be
	// non-empty and each instrument carries code, name and latest price.
	ListInstruments(ctx context.Context) ([]model.Instrument, error)

	// NavHistory returns the fund's NAV history in chronological order; the
	// pipeline consumes only the last entry.
	NavHistory(ctx context.Context, code string) ([]model.NavPoint, error)
}

// New creates a provider based on the configuration.
func New(cfg config.Config) (Provider, error) {
	switch cfg.Provider {
	case "eastmoney":
		return NewEastmoneyClient(cfg), nil
	case "static":
		return NewStaticProvider(cfg.StaticDataDir), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// newRetryClient creates an HTTP client with transport-level retry. This
// sits under the application-level retrying caller and only covers
// connection-level flakiness and 5xx responses.
func newRetryClient(timeout time.Duration) *http.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = nil
	return c.StandardClient()
}

// newLimiter builds the request pacer shared by all provider calls.
func newLimiter(rps float64, burst int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(rps), burst)
}
