// Command genmock writes a deterministic synthetic rainfall CSV together with
// the Dataset JSON that building it must produce. The pair is used as a
// fixture by cmd/validate and the integration tests.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -start 1988 -end 1992 \
//	  -csv-out data/mock/rainfall_1988_1992.csv \
//	  -json-out data/mock/rainfall_1988_1992.json
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/rainfall-etl/internal/adapter/jsonstore"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

// options controls the shape of the generated data.
type options struct {
	r        domain.YearRange
	seed     uint64
	wetRatio float64 // share of days with a reading
	dryYears int     // years left without any reading
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	start := flag.Int("start", 1988, "first year")
	end := flag.Int("end", 1992, "last year")
	csvOut := flag.String("csv-out", "", "output path for the CSV source")
	jsonOut := flag.String("json-out", "", "output path for the expected Dataset JSON")
	seed := flag.Uint64("seed", 1, "random seed")
	wet := flag.Float64("wet-ratio", 0.35, "share of days with a reading")
	dry := flag.Int("dry-years", 1, "number of years without readings")
	flag.Parse()

	if *csvOut == "" || *jsonOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -json-out")
	}

	opts := options{
		r:        domain.YearRange{Start: *start, End: *end},
		seed:     *seed,
		wetRatio: *wet,
		dryYears: *dry,
	}
	if err := opts.r.Validate(); err != nil {
		return err
	}

	records := generate(opts)
	log.Printf("generated %d records for %s", len(records), opts.r)

	if err := writeCSV(*csvOut, records); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	log.Printf("wrote CSV: %s", *csvOut)

	ds := domain.BuildDataset(records, opts.r.Start, opts.r.End)
	if err := jsonstore.Save(*jsonOut, ds); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	log.Printf("wrote JSON: %s", *jsonOut)

	c := domain.Summarize(ds)
	log.Printf("years=%d empty=%d readings=%d", c.Years, c.EmptyYears, c.Readings)
	return nil
}

// generate produces readings for every year in the range plus one year on
// each side, so builds must drop out-of-range rows. The last dryYears years
// of the range get no readings. A few readings are repeated with a new value
// to exercise last-write-wins.
func generate(opts options) []domain.Record {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	var records []domain.Record
	for year := opts.r.Start - 1; year <= opts.r.End+1; year++ {
		if year > opts.r.End-opts.dryYears && year <= opts.r.End {
			continue
		}
		for day := 1; day <= daysIn(year); day++ {
			if rng.Float64() >= opts.wetRatio {
				continue
			}
			records = append(records, domain.Record{Year: year, Day: day, Rainfall: rainfall(rng)})
		}
	}

	for range len(records) / 50 {
		dup := records[rng.IntN(len(records))]
		dup.Rainfall = rainfall(rng)
		records = append(records, dup)
	}
	return records
}

// rainfall draws a daily amount in mm from an exponential distribution,
// rounded to one decimal place.
func rainfall(rng *rand.Rand) float64 {
	return math.Round(rng.ExpFloat64()*40) / 10
}

func daysIn(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

func writeCSV(path string, records []domain.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Year),
			strconv.Itoa(rec.Day),
			strconv.FormatFloat(rec.Rainfall, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
