package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-etl/internal/adapter/jsonstore"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

const csvBody = "2000,1,0.5\n2000,2,1.5\n2000,1,0.75\n2001,1,2.0\n1999,3,9.9\n"

func writeFixtures(t *testing.T, ds domain.Dataset) (csvPath, jsonPath string) {
	t.Helper()
	dir := t.TempDir()
	csvPath = filepath.Join(dir, "readings.csv")
	jsonPath = filepath.Join(dir, "rainfall_2000_2002.json")
	require.NoError(t, os.WriteFile(csvPath, []byte(csvBody), 0o600))
	require.NoError(t, jsonstore.Save(jsonPath, ds))
	return csvPath, jsonPath
}

func TestRun_Passes(t *testing.T) {
	csvPath, jsonPath := writeFixtures(t, domain.Dataset{
		2000: {1: 0.75, 2: 1.5},
		2001: {1: 2.0},
		2002: {},
	})
	var out bytes.Buffer

	code := run(&out, csvPath, jsonPath, domain.YearRange{Start: 2000, End: 2002})

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_DetectsMismatches(t *testing.T) {
	csvPath, jsonPath := writeFixtures(t, domain.Dataset{
		2000: {1: 0.5, 2: 1.5, 7: 3.0},
		2001: {},
		2003: {},
	})
	var out bytes.Buffer

	code := run(&out, csvPath, jsonPath, domain.YearRange{Start: 2000, End: 2002})

	assert.Equal(t, 1, code)
	report := out.String()
	assert.Contains(t, report, "year 2002 missing from JSON")
	assert.Contains(t, report, "year 2003 outside range 2000-2002")
	assert.Contains(t, report, "year 2000 day 1: CSV=0.75, JSON=0.5")
	assert.Contains(t, report, "year 2001 day 1: missing from JSON")
	assert.Contains(t, report, "year 2000 day 7: in JSON but not in CSV")
	assert.Contains(t, report, "Validation FAILED.")
}

func TestRun_NonCanonicalEncoding(t *testing.T) {
	csvPath, jsonPath := writeFixtures(t, domain.Dataset{2000: {1: 0.75, 2: 1.5}, 2001: {1: 2.0}, 2002: {}})
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"2000":{"1":0.75,"2":1.5},"2001":{"1":2},"2002":{}}`), 0o600))
	var out bytes.Buffer

	code := run(&out, csvPath, jsonPath, domain.YearRange{Start: 2000, End: 2002})

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "file differs from canonical encoding")
}

func TestRun_Fatal(t *testing.T) {
	csvPath, jsonPath := writeFixtures(t, domain.Dataset{})
	var out bytes.Buffer

	assert.Equal(t, 1, run(&out, csvPath, jsonPath, domain.YearRange{Start: 2002, End: 2000}))
	assert.Equal(t, 1, run(&out, filepath.Join(t.TempDir(), "absent.csv"), jsonPath, domain.YearRange{Start: 2000, End: 2000}))
	assert.Contains(t, out.String(), "FATAL")
}
