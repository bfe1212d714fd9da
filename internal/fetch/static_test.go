package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStaticProvider(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "listing.json"),
		`[{"code":"161116","name":"Gold Fund","market_price":2.10}]`)
	writeFixture(t, filepath.Join(dir, "nav", "161116.json"),
		`[{"date":"2024-01-01","unit_nav":1.95},{"date":"2024-01-02","unit_nav":2.00}]`)

	p := NewStaticProvider(dir)

	instruments, err := p.ListInstruments(context.Background())
	require.NoError(t, err)
	require.Len(t, instruments, 1)
	assert.Equal(t, "161116", instruments[0].Code)

	points, err := p.NavHistory(context.Background(), "161116")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 2.00, points[1].UnitNav)

	_, err = p.NavHistory(context.Background(), "999999")
	assert.Error(t, err)
}

func TestStaticProviderMissingFields(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "listing.json"), `[{"market_price":1.0}]`)

	_, err := NewStaticProvider(dir).ListInstruments(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumns)
}
