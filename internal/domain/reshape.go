package domain

// BuildDataset reshapes flat records into a Dataset covering [start, end].
//
// Every year in the range gets an entry, empty when no record matched.
// Records outside the range are ignored. A repeated (year, day) pair keeps the
// value seen last in input order. An inverted range yields an empty Dataset;
// callers that take ranges from users validate with YearRange.Validate first.
func BuildDataset(records []Record, start, end int) Dataset {
	span := YearRange{Start: start, End: end}
	n := span.Len()
	ds := make(Dataset, n)
	for i := range n {
		ds[start+i] = YearTable{}
	}

	for _, rec := range records {
		table, ok := ds[rec.Year]
		if !ok {
			continue
		}
		table[rec.Day] = rec.Rainfall
	}
	return ds
}

// Counts summarizes a built Dataset for logging and metrics.
type Counts struct {
	Years      int
	EmptyYears int
	Readings   int
}

// Summarize counts the years, empty years, and readings in a Dataset.
func Summarize(ds Dataset) Counts {
	var c Counts
	for _, t := range ds {
		c.Years++
		if len(t) == 0 {
			c.EmptyYears++
		}
		c.Readings += len(t)
	}
	return c
}
