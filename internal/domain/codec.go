package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MarshalDataset encodes a Dataset in its persisted JSON form, indented by
// two spaces. Years and days are emitted in ascending numeric order, which
// encoding/json would not do for integer keys ("10" sorts before "9").
func MarshalDataset(ds Dataset) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	years := ds.Years()
	for i, year := range years {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "\n  \"%d\": ", year)

		table := ds[year]
		days := table.Days()
		if len(days) == 0 {
			buf.WriteString("{}")
			continue
		}
		buf.WriteByte('{')
		for j, day := range days {
			v, err := json.Marshal(table[day])
			if err != nil {
				return nil, fmt.Errorf("marshal dataset: year %d day %d: %w", year, day, err)
			}
			if j > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(&buf, "\n    \"%d\": %s", day, v)
		}
		buf.WriteString("\n  }")
	}
	if len(years) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// ParseDataset decodes the persisted JSON form produced by MarshalDataset.
// Keys must be canonical decimal integers and values JSON numbers.
func ParseDataset(data []byte) (Dataset, error) {
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	ds := make(Dataset, len(raw))
	for yearKey, days := range raw {
		year, ok := parseKey(yearKey)
		if !ok {
			return nil, fmt.Errorf("parse dataset: invalid year key %q", yearKey)
		}
		table := make(YearTable, len(days))
		for dayKey, v := range days {
			day, ok := parseKey(dayKey)
			if !ok {
				return nil, fmt.Errorf("parse dataset: year %d: invalid day key %q", year, dayKey)
			}
			table[day] = v
		}
		ds[year] = table
	}
	return ds, nil
}

// parseKey accepts only the form strconv.Itoa produces, so "7", "07" and
// "+7" cannot name the same entry.
func parseKey(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || strconv.Itoa(n) != key {
		return 0, false
	}
	return n, true
}

// yearPayload is the wire form of a single YearTable, shared by the Kafka
// publisher and the HTTP API.
type yearPayload struct {
	Year  int       `json:"year"`
	Days  YearTable `json:"days"`
	Count int       `json:"count"`
}

// MarshalYear encodes one year's table as {"year":Y,"days":{...},"count":N}.
func MarshalYear(year int, t YearTable) ([]byte, error) {
	if t == nil {
		t = YearTable{}
	}
	data, err := json.Marshal(yearPayload{Year: year, Days: t, Count: len(t)})
	if err != nil {
		return nil, fmt.Errorf("marshal year %d: %w", year, err)
	}
	return data, nil
}
