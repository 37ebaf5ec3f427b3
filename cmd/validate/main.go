// Command validate performs integrity checks between a rainfall CSV source
// and a persisted Dataset JSON built from it. It verifies that the JSON
// covers exactly the requested year range, that every in-range reading made
// it across with last-write-wins semantics, and that the file is in the
// canonical encoding.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/mock/rainfall_1988_1992.csv \
//	  -json data/mock/rainfall_1988_1992.json \
//	  -start 1988 -end 1992
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/rainfall-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "rainfall CSV source")
	jsonPath := flag.String("json", "", "Dataset JSON built from the CSV")
	start := flag.Int("start", 0, "first year of the range")
	end := flag.Int("end", 0, "last year of the range")
	flag.Parse()

	if *csvPath == "" || *jsonPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *csvPath, *jsonPath, domain.YearRange{Start: *start, End: *end}); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, csvPath, jsonPath string, r domain.YearRange) int {
	fmt.Fprintln(w, "=== Rainfall Data Integrity Validation ===")
	fmt.Fprintln(w)

	if err := r.Validate(); err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	records, err := loadRecords(csvPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load CSV: %v\n", err)
		return 1
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: read JSON: %v\n", err)
		return 1
	}
	ds, err := domain.ParseDataset(raw)
	if err != nil {
		fmt.Fprintf(w, "FATAL: parse JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateCoverage(ds, r),
		validateValues(ds, expectedValues(records, r)),
		validateEncoding(ds, raw),
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	c := domain.Summarize(ds)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d CSV rows, %d years (%d empty), %d readings in JSON\n",
		len(records), c.Years, c.EmptyYears, c.Readings)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func loadRecords(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csvfile.Parse(f)
}

// expectedValues replays the CSV in file order so later rows overwrite
// earlier ones for the same (year, day).
func expectedValues(records []domain.Record, r domain.YearRange) map[[2]int]float64 {
	want := make(map[[2]int]float64)
	for _, rec := range records {
		if rec.Year < r.Start || rec.Year > r.End {
			continue
		}
		want[[2]int{rec.Year, rec.Day}] = rec.Rainfall
	}
	return want
}

// ── Phase 1: Range Coverage ──

func validateCoverage(ds domain.Dataset, r domain.YearRange) *phase {
	p := &phase{name: "Phase 1: Range Coverage (year keys)"}

	for y := r.Start; y <= r.End; y++ {
		if _, ok := ds[y]; !ok {
			p.errorf("year %d missing from JSON", y)
		}
	}
	for _, y := range ds.Years() {
		if y < r.Start || y > r.End {
			p.errorf("year %d outside range %s", y, r)
		}
	}
	return p
}

// ── Phase 2: Value Parity ──

func validateValues(ds domain.Dataset, want map[[2]int]float64) *phase {
	p := &phase{name: "Phase 2: Value Parity (JSON vs CSV)"}

	for key, v := range want {
		got, ok := ds[key[0]][key[1]]
		switch {
		case !ok:
			p.errorf("year %d day %d: missing from JSON (CSV=%g)", key[0], key[1], v)
		case !floatEq(got, v):
			p.errorf("year %d day %d: CSV=%g, JSON=%g", key[0], key[1], v, got)
		}
	}
	for _, y := range ds.Years() {
		for _, d := range ds[y].Days() {
			if _, ok := want[[2]int{y, d}]; !ok {
				p.errorf("year %d day %d: in JSON but not in CSV", y, d)
			}
		}
	}
	return p
}

// ── Phase 3: Canonical Encoding ──

func validateEncoding(ds domain.Dataset, raw []byte) *phase {
	p := &phase{name: "Phase 3: Canonical Encoding (round trip)"}

	encoded, err := domain.MarshalDataset(ds)
	if err != nil {
		p.errorf("re-encode: %v", err)
		return p
	}
	if !bytes.Equal(encoded, raw) {
		p.errorf("file differs from canonical encoding (%d bytes vs %d)", len(raw), len(encoded))
	}
	back, err := domain.ParseDataset(encoded)
	if err != nil {
		p.errorf("re-parse: %v", err)
		return p
	}
	if len(back) != len(ds) {
		p.errorf("round trip changed year count: %d -> %d", len(ds), len(back))
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
