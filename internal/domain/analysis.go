package domain

import "fmt"

// Mean returns the arithmetic mean of the table's rainfall values.
func (t YearTable) Mean() (float64, error) {
	if len(t) == 0 {
		return 0, ErrEmptyYear
	}
	var total float64
	for _, v := range t {
		total += v
	}
	return total / float64(len(t)), nil
}

// AnnualMeans computes the mean rainfall of every year in [start, end], in
// ascending year order. It fails on the first year that is missing or empty,
// and without scanning when [start, end] reaches past the Dataset's span.
func (d Dataset) AnnualMeans(start, end int) ([]AnnualMean, error) {
	r := YearRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	span, ok := d.Range()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrYearNotFound, start)
	}
	if start < span.Start {
		return nil, fmt.Errorf("%w: %d", ErrYearNotFound, start)
	}
	if end > span.End {
		return nil, fmt.Errorf("%w: %d", ErrYearNotFound, end)
	}

	means := make([]AnnualMean, 0, min(r.Len(), len(d)))
	for i := range r.Len() {
		year := start + i
		t, err := d.Year(year)
		if err != nil {
			return nil, err
		}
		m, err := t.Mean()
		if err != nil {
			return nil, fmt.Errorf("%w: %d", err, year)
		}
		means = append(means, AnnualMean{Year: year, Mean: m})
	}
	return means, nil
}
