// Package domain models daily rainfall measurements and the year→day lookup
// structure built from them.
//
// # Data Source
//
// Measurements arrive as a headerless delimited text file, one reading per
// line:
//
//	<year>,<day>,<rainfall>
//	1998,1,0.25
//	1998,2,3.1
//
// Year and day are integers; rainfall is a decimal in mm/day. Day is the day
// of year (1–366) and is not validated; gaps are common because stations
// drop readings. Rainfall is non-negative by convention but also unchecked.
//
// # Dataset Shape
//
// A [Dataset] maps every year of a requested inclusive range to a [YearTable]
// (day → rainfall). A year with no readings is present with an empty table,
// never absent, so consumers can distinguish "no data" from "out of range".
// When the source repeats a (year, day) pair the later line wins.
//
// # Persisted Form
//
// The Dataset is persisted as a JSON object keyed by decimal year strings,
// each value an object keyed by decimal day strings:
//
//	{
//	  "1998": {"1": 0.25, "2": 3.1},
//	  "1999": {}
//	}
//
// See [MarshalDataset] and [ParseDataset].
//
// # Correction
//
// Gauge readings are scaled by the fixed factor 1.2^√2 (≈ 1.2941). The
// correction is offered as an explicit loop ([CorrectLoop]) and as a mapped
// transform ([CorrectFunctional]); both yield identical sequences.
package domain
