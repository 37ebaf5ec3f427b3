package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

func TestGenerate_Deterministic(t *testing.T) {
	opts := options{r: domain.YearRange{Start: 1990, End: 1993}, seed: 42, wetRatio: 0.3, dryYears: 1}

	assert.Equal(t, generate(opts), generate(opts))

	other := opts
	other.seed = 43
	assert.NotEqual(t, generate(opts), generate(other))
}

func TestGenerate_Shape(t *testing.T) {
	opts := options{r: domain.YearRange{Start: 1990, End: 1993}, seed: 7, wetRatio: 0.5, dryYears: 1}

	records := generate(opts)
	ds := domain.BuildDataset(records, opts.r.Start, opts.r.End)

	require.Len(t, ds, 4)
	assert.Empty(t, ds[1993], "last year is dry")
	assert.NotEmpty(t, ds[1990])

	var outside bool
	for _, rec := range records {
		assert.GreaterOrEqual(t, rec.Day, 1)
		assert.LessOrEqual(t, rec.Day, daysIn(rec.Year))
		assert.GreaterOrEqual(t, rec.Rainfall, 0.0)
		if rec.Year < opts.r.Start || rec.Year > opts.r.End {
			outside = true
		}
	}
	assert.True(t, outside, "fixture includes out-of-range rows")
}

func TestWriteCSV_RoundTripsThroughParser(t *testing.T) {
	records := generate(options{r: domain.YearRange{Start: 2000, End: 2000}, seed: 1, wetRatio: 0.2})
	path := filepath.Join(t.TempDir(), "mock", "readings.csv")

	require.NoError(t, writeCSV(path, records))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	parsed, err := csvfile.Parse(f)
	require.NoError(t, err)
	assert.Equal(t, records, parsed)
}

func TestDaysIn(t *testing.T) {
	assert.Equal(t, 366, daysIn(2000))
	assert.Equal(t, 365, daysIn(1900))
	assert.Equal(t, 366, daysIn(1988))
	assert.Equal(t, 365, daysIn(1991))
}
