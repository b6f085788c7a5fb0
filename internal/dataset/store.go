// Package dataset memoizes the unified table built from the input workbook.
// The table is rebuilt only when the file's path, modification time or size
// changes, or after an explicit Invalidate.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/godilite/perf-dashboard/internal/loader"
	"github.com/godilite/perf-dashboard/internal/repository/models"
)

var (
	// ErrLoad wraps every failure to build the unified table.
	ErrLoad = errors.New("dataset load failed")
)

const (
	reloadKey = "dataset:reload"

	// loadTimeout bounds a shared reload, which runs detached from any
	// single caller's context.
	loadTimeout = 2 * time.Minute
)

// TableLoader reads a workbook into the unified table.
type TableLoader interface {
	Load(ctx context.Context, path string) (*loader.Table, error)
}

// TableWriter replaces the stored unified table.
type TableWriter interface {
	ReplaceAll(ctx context.Context, records []models.PerformanceRecord) error
}

// LoadObserver receives the outcome of each load attempt.
type LoadObserver interface {
	ObserveLoad(ok bool, elapsed time.Duration, records int)
}

// Version identifies the loaded table.
type Version struct {
	Fingerprint string    `json:"fingerprint"`
	Path        string    `json:"path"`
	ModTime     time.Time `json:"mod_time"`
	Size        int64     `json:"size"`
	Sheets      []string  `json:"sheets"`
	Records     int       `json:"records"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// IsZero reports whether nothing has been loaded yet.
func (v Version) IsZero() bool {
	return v.Fingerprint == ""
}

type fileKey struct {
	path    string
	modTime time.Time
	size    int64
}

func (k fileKey) fingerprint() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%s|%d|%d", k.path, k.modTime.UnixNano(), k.size)))
}

// Store owns the lifecycle of the unified table.
type Store struct {
	path     string
	loader   TableLoader
	writer   TableWriter
	observer LoadObserver
	logger   *zap.Logger
	now      func() time.Time

	sf singleflight.Group

	mu        sync.RWMutex
	current   Version
	key       fileKey
	stale     bool
	failedKey fileKey
	failedErr error
}

// Option configures a Store.
type Option func(*Store)

// WithObserver reports load attempts to o.
func WithObserver(o LoadObserver) Option {
	return func(s *Store) { s.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for LoadedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store for the workbook at path.
func NewStore(path string, l TableLoader, w TableWriter, opts ...Option) *Store {
	if l == nil || w == nil {
		panic("dataset: loader and writer must not be nil")
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	s := &Store{
		path:   path,
		loader: l,
		writer: w,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("dataset")
	return s
}

// Path returns the absolute path of the workbook.
func (s *Store) Path() string {
	return s.path
}

// Version returns the currently loaded version, zero before the first load.
func (s *Store) Version() Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Invalidate forces the next Ensure to reload regardless of the file state.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stale = true
	s.failedErr = nil
	s.failedKey = fileKey{}
	s.logger.Info("dataset invalidated")
}

// Reload invalidates and loads the workbook again.
func (s *Store) Reload(ctx context.Context) (Version, error) {
	s.Invalidate()
	return s.Ensure(ctx)
}

// Ensure makes sure the stored table reflects the file on disk and returns
// its version. A file that failed to load is not retried until it changes or
// the store is invalidated.
func (s *Store) Ensure(ctx context.Context) (Version, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return s.Version(), fmt.Errorf("%w: stat %s: %w", ErrLoad, s.path, err)
	}
	key := fileKey{path: s.path, modTime: info.ModTime(), size: info.Size()}

	s.mu.RLock()
	switch {
	case s.stale:
	case s.failedErr != nil && key == s.failedKey:
		err := s.failedErr
		v := s.current
		s.mu.RUnlock()
		return v, err
	case !s.current.IsZero() && key == s.key:
		v := s.current
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	res, err, shared := s.sf.Do(reloadKey, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.reload(lctx, key)
	})
	if shared {
		s.logger.Debug("dataset reload shared")
	}
	if err != nil {
		return s.Version(), err
	}
	return res.(Version), nil
}

func (s *Store) reload(ctx context.Context, key fileKey) (Version, error) {
	start := time.Now()

	table, err := s.loader.Load(ctx, key.path)
	if err == nil {
		err = s.writer.ReplaceAll(ctx, table.Records())
	}
	elapsed := time.Since(start)

	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoad, err)
		s.observe(false, elapsed, 0)

		s.mu.Lock()
		if ctx.Err() == nil {
			s.failedKey = key
			s.failedErr = err
			s.stale = false
		}
		s.mu.Unlock()

		s.logger.Error("dataset load failed",
			zap.String("path", key.path),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return Version{}, err
	}

	v := Version{
		Fingerprint: key.fingerprint(),
		Path:        key.path,
		ModTime:     key.modTime,
		Size:        key.size,
		Sheets:      table.Sheets,
		Records:     len(table.Rows),
		LoadedAt:    s.now(),
	}
	s.observe(true, elapsed, v.Records)

	s.mu.Lock()
	s.current = v
	s.key = key
	s.stale = false
	s.failedErr = nil
	s.failedKey = fileKey{}
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		zap.String("path", key.path),
		zap.String("fingerprint", v.Fingerprint),
		zap.Int("records", v.Records),
		zap.Duration("elapsed", elapsed))
	return v, nil
}

func (s *Store) observe(ok bool, elapsed time.Duration, records int) {
	if s.observer != nil {
		s.observer.ObserveLoad(ok, elapsed, records)
	}
}
