// Package sqlite implements the persistence contracts on an SQLite database
// through database/sql and the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/student-rentals/internal/scheduler"
)

// Storage implements persistence.CatalogStore, persistence.ReservationStore
// and persistence.AccountStore on one database handle.
type Storage struct {
	db    *sql.DB
	retry RetryConfig
}

// Open opens the database at dsn with the default settings.
func Open(dsn string) (*Storage, error) {
	return OpenConfig(context.Background(), DefaultConfig(dsn))
}

// OpenConfig opens the database described by cfg. Call Migrate before use.
func OpenConfig(ctx context.Context, cfg Config) (*Storage, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{db: db, retry: cfg.Retry}, nil
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// write runs fn in a transaction, retrying while the database is locked.
func (s *Storage) write(ctx context.Context, fn txFunc) error {
	return withRetry(ctx, s.retry, func() error {
		return mapError(withTransaction(ctx, s.db, fn))
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func parseDates(values ...string) ([]scheduler.Date, error) {
	dates := make([]scheduler.Date, len(values))
	for i, value := range values {
		d, err := scheduler.ParseDate(value)
		if err != nil {
			return nil, err
		}
		dates[i] = d
	}
	return dates, nil
}
