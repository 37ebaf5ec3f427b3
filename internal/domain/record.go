package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrYearNotFound is returned when a lookup targets a year outside the Dataset.
	ErrYearNotFound = errors.New("year not found")

	// ErrEmptyYear is returned when an aggregate is requested for a year with no readings.
	ErrEmptyYear = errors.New("year has no readings")

	// ErrInvalidRange is returned when a requested range starts after it ends.
	ErrInvalidRange = errors.New("start year is after end year")
)

// Record is a single rainfall reading as parsed from the source file.
type Record struct {
	Year     int
	Day      int
	Rainfall float64 // mm/day
}

// YearTable maps day of year to rainfall for a single year.
type YearTable map[int]float64

// Dataset maps year to that year's YearTable.
type Dataset map[int]YearTable

// YearRange is an inclusive [Start, End] span of years.
type YearRange struct {
	Start int
	End   int
}

// Validate returns ErrInvalidRange when Start is after End.
func (r YearRange) Validate() error {
	if r.Start > r.End {
		return fmt.Errorf("%w: %d > %d", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Len is the number of years in the range, zero when inverted. Spans wider
// than math.MaxInt saturate.
func (r YearRange) Len() int {
	if r.Start > r.End {
		return 0
	}
	n := uint(r.End) - uint(r.Start)
	if n >= math.MaxInt {
		return math.MaxInt
	}
	return int(n) + 1
}

// DatasetName is the base name, without extension, used for artifacts that
// hold this range, e.g. "rainfall_1937_2012".
func (r YearRange) DatasetName() string {
	return fmt.Sprintf("rainfall_%d_%d", r.Start, r.End)
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// AnnualMean is one point of the mean annual rainfall series.
type AnnualMean struct {
	Year int     `json:"year"`
	Mean float64 `json:"mean"`
}

// Days returns the table's days in ascending order.
func (t YearTable) Days() []int {
	days := make([]int, 0, len(t))
	for d := range t {
		days = append(days, d)
	}
	slices.Sort(days)
	return days
}

// Values returns rainfall values ordered by ascending day.
func (t YearTable) Values() []float64 {
	days := t.Days()
	values := make([]float64, len(days))
	for i, d := range days {
		values[i] = t[d]
	}
	return values
}

// Years returns the Dataset's years in ascending order.
func (d Dataset) Years() []int {
	years := make([]int, 0, len(d))
	for y := range d {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}

// Year looks up a single year's table.
func (d Dataset) Year(year int) (YearTable, error) {
	t, ok := d[year]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrYearNotFound, year)
	}
	return t, nil
}

// Range reports the span covered by the Dataset's keys. ok is false for an
// empty Dataset.
func (d Dataset) Range() (r YearRange, ok bool) {
	years := d.Years()
	if len(years) == 0 {
		return YearRange{}, false
	}
	return YearRange{Start: years[0], End: years[len(years)-1]}, true
}
