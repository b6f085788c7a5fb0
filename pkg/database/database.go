package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultDriver     = "sqlite3"
	DefaultDataSource = "file:perfdash?mode=memory&cache=shared"
)

type Options struct {
	Driver          string
	DataSource      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	PingTimeout     time.Duration
}

type Option func(*Options)

func WithDriver(driver string) Option {
	return func(o *Options) { o.Driver = driver }
}

func WithDataSource(dsn string) Option {
	return func(o *Options) { o.DataSource = dsn }
}

func WithMaxOpenConns(count int) Option {
	return func(o *Options) { o.MaxOpenConns = count }
}

func WithMaxIdleConns(count int) Option {
	return func(o *Options) { o.MaxIdleConns = count }
}

func WithConnMaxLifetime(duration time.Duration) Option {
	return func(o *Options) { o.ConnMaxLifetime = duration }
}

func WithConnMaxIdleTime(duration time.Duration) Option {
	return func(o *Options) { o.ConnMaxIdleTime = duration }
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *Options) {
		o.RetryAttempts = attempts
		o.RetryDelay = delay
	}
}

func WithPingTimeout(d time.Duration) Option {
	return func(o *Options) { o.PingTimeout = d }
}

// IsMemorySQLite reports whether dsn names an in-memory SQLite database.
// Such a database is dropped when its last connection closes.
func IsMemorySQLite(driver, dsn string) bool {
	if !strings.HasPrefix(driver, "sqlite") {
		return false
	}
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// New creates a new database connection pool using the provided options.
func New(opts ...Option) (*sql.DB, error) {
	options := &Options{
		Driver:          DefaultDriver,
		DataSource:      DefaultDataSource,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		PingTimeout:     5 * time.Second,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.Driver == "" {
		return nil, fmt.Errorf("database driver cannot be empty")
	}
	if options.DataSource == "" {
		return nil, fmt.Errorf("database data source cannot be empty")
	}
	if options.RetryAttempts < 1 {
		options.RetryAttempts = 1
	}

	// In-memory SQLite lives as long as one connection does, and shared-cache
	// readers fail with SQLITE_LOCKED while another connection writes. Pin the
	// pool to a single long-lived connection so reads queue behind writes.
	if IsMemorySQLite(options.Driver, options.DataSource) {
		options.MaxOpenConns = 1
		if options.MaxIdleConns < 1 {
			options.MaxIdleConns = 1
		}
		options.ConnMaxLifetime = 0
		options.ConnMaxIdleTime = 0
	}

	var db *sql.DB
	var err error

	for i := 0; i < options.RetryAttempts; i++ {
		db, err = sql.Open(options.Driver, options.DataSource)
		if err == nil {
			db.SetMaxOpenConns(options.MaxOpenConns)
			db.SetMaxIdleConns(options.MaxIdleConns)
			db.SetConnMaxLifetime(options.ConnMaxLifetime)
			db.SetConnMaxIdleTime(options.ConnMaxIdleTime)

			if err = ping(db, options.PingTimeout); err == nil {
				return db, nil
			}

			db.Close()
		}

		// Linear backoff between attempts.
		if i < options.RetryAttempts-1 {
			time.Sleep(time.Duration(i+1) * options.RetryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", options.RetryAttempts, err)
}

func ping(db *sql.DB, timeout time.Duration) error {
	if timeout <= 0 {
		return db.Ping()
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return db.PingContext(ctx)
}
