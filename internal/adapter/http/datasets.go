package http

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/rainfall-etl/internal/adapter/jsonstore"
	"github.com/couchcryptid/rainfall-etl/internal/domain"
	"github.com/couchcryptid/rainfall-etl/internal/observability"
)

var (
	// ErrDatasetNotFound is returned when no persisted file exists for a name.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrInvalidName is returned for names outside [A-Za-z0-9_-]+.
	ErrInvalidName = errors.New("invalid dataset name")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// DatasetLoader resolves dataset names to persisted files under a directory
// and keeps recently used Datasets in memory. A cached Dataset is reused only
// while its file keeps the same modification time and size, so a rebuild is
// picked up on the next request. Safe for concurrent use.
type DatasetLoader struct {
	dir     string
	cache   *lru.Cache[string, cachedDataset]
	metrics *observability.Metrics
}

type cachedDataset struct {
	ds      domain.Dataset
	modTime time.Time
	size    int64
}

func (c cachedDataset) matches(info fs.FileInfo) bool {
	return c.modTime.Equal(info.ModTime()) && c.size == info.Size()
}

// NewDatasetLoader creates a loader that caches up to size Datasets.
func NewDatasetLoader(dir string, size int, metrics *observability.Metrics) (*DatasetLoader, error) {
	cache, err := lru.New[string, cachedDataset](size)
	if err != nil {
		return nil, fmt.Errorf("create dataset cache: %w", err)
	}
	return &DatasetLoader{dir: dir, cache: cache, metrics: metrics}, nil
}

// Load returns the Dataset stored as <dir>/<name>.json.
func (l *DatasetLoader) Load(name string) (domain.Dataset, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := filepath.Join(l.dir, name+".json")

	info, err := os.Stat(path)
	if err != nil {
		l.cache.Remove(name)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
		}
		return nil, fmt.Errorf("stat dataset: %w", err)
	}
	if c, ok := l.cache.Get(name); ok && c.matches(info) {
		l.metrics.DatasetCache.WithLabelValues("hit").Inc()
		return c.ds, nil
	}
	l.metrics.DatasetCache.WithLabelValues("miss").Inc()

	ds, err := jsonstore.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
		}
		return nil, err
	}
	l.cache.Add(name, cachedDataset{ds: ds, modTime: info.ModTime(), size: info.Size()})
	return ds, nil
}

// CheckReadiness reports whether the data directory can be listed.
func (l *DatasetLoader) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(l.dir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", l.dir)
	}
	if _, err := os.ReadDir(l.dir); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	return nil
}
