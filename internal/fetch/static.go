package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourorg/lof-premium/internal/model"
)

// StaticProvider serves listing and NAV data from JSON fixtures on disk,
// for offline runs and integration tests. Layout:
//
//	<dir>/listing.json       []model.Instrument
//	<dir>/nav/<code>.json    []model.NavPoint (chronological)
type StaticProvider struct {
	dir string
}

// NewStaticProvider creates a file-backed provider rooted at dir.
func NewStaticProvider(dir string) *StaticProvider {
	return &StaticProvider{dir: dir}
}

// ListInstruments reads the listing fixture.
func (p *StaticProvider) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(p.dir, "listing.json"))
	if err != nil {
		return nil, fmt.Errorf("reading listing fixture: %w", err)
	}

	var instruments []model.Instrument
	if err := json.Unmarshal(data, &instruments); err != nil {
		return nil, fmt.Errorf("parsing listing fixture: %w", err)
	}
	for _, inst := range instruments {
		if inst.Code == "" || inst.Name == "" {
			return nil, fmt.Errorf("%w: fixture row lacks code or name", ErrMissingColumns)
		}
	}
	return instruments, nil
}

// NavHistory reads the per-fund NAV fixture.
func (p *StaticProvider) NavHistory(ctx context.Context, code string) ([]model.NavPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(p.dir, "nav", code+".json"))
	if err != nil {
		return nil, fmt.Errorf("no nav fixture for %s: %w", code, err)
	}

	var points []model.NavPoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("parsing nav fixture for %s: %w", code, err)
	}
	return points, nil
}
