// Package jsonstore persists Datasets as JSON documents on the local filesystem.
package jsonstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

// DatasetPath is where a Dataset covering r is persisted inside dir.
func DatasetPath(dir string, r domain.YearRange) string {
	return filepath.Join(dir, r.DatasetName()+".json")
}

// Save writes the Dataset to path through a temporary file in the same
// directory, so readers never observe a partial document.
func Save(path string, ds domain.Dataset) error {
	data, err := domain.MarshalDataset(ds)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rainfall-*.json")
	if err != nil {
		return fmt.Errorf("create temp dataset file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write dataset: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename dataset: %w", err)
	}
	return nil
}

// Load reads and parses a persisted Dataset.
func Load(path string) (domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	ds, err := domain.ParseDataset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// FileSink stores built Datasets under a directory, one file per range.
// It implements pipeline.DatasetSink.
type FileSink struct {
	dir    string
	logger *slog.Logger
}

// NewFileSink creates a FileSink rooted at dir.
func NewFileSink(dir string, logger *slog.Logger) *FileSink {
	return &FileSink{dir: dir, logger: logger}
}

func (s *FileSink) Name() string { return "json" }

// Store writes the Dataset to DatasetPath(dir, r).
func (s *FileSink) Store(_ context.Context, r domain.YearRange, ds domain.Dataset) error {
	path := DatasetPath(s.dir, r)
	if err := Save(path, ds); err != nil {
		return err
	}
	s.logger.Info("dataset written", "path", path, "years", len(ds))
	return nil
}
