// Package csvfile reads rainfall readings from headerless delimited text.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

const fieldsPerRecord = 3

// Source reads records from a file on disk.
// It implements pipeline.RecordSource.
type Source struct {
	path   string
	logger *slog.Logger
}

// NewSource creates a Source for the given path.
func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{path: path, logger: logger}
}

// ReadRecords opens and parses the whole file.
func (s *Source) ReadRecords(ctx context.Context) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open rainfall source: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	s.logger.Debug("rainfall source read", "path", s.path, "records", len(records))
	return records, nil
}

// Parse reads "year,day,rainfall" lines until EOF. Fields are trimmed; blank
// lines are skipped. The first malformed line aborts parsing with an error
// naming its 1-based line number.
func Parse(r io.Reader) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var records []domain.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
}

func parseRow(row []string) (domain.Record, error) {
	if len(row) != fieldsPerRecord {
		return domain.Record{}, fmt.Errorf("expected %d fields, got %d", fieldsPerRecord, len(row))
	}

	year, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return domain.Record{}, fmt.Errorf("invalid year %q", row[0])
	}
	day, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return domain.Record{}, fmt.Errorf("invalid day %q", row[1])
	}
	rainfall, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return domain.Record{}, fmt.Errorf("invalid rainfall %q", row[2])
	}

	return domain.Record{Year: year, Day: day, Rainfall: rainfall}, nil
}
