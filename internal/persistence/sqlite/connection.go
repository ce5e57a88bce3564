package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/student-rentals/internal/persistence"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the connection settings for the SQLite store.
type Config struct {
	// DSN is the database file path, or ":memory:" for a private in-memory database.
	DSN string

	// BusyTimeout sets how long SQLite waits on a locked database before failing.
	BusyTimeout time.Duration

	// Retry controls how write transactions are retried while the database is busy.
	Retry RetryConfig
}

// DefaultConfig returns the settings used when only a DSN is known.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:         dsn,
		BusyTimeout: 5 * time.Second,
		Retry:       DefaultRetryConfig(),
	}
}

func openDB(ctx context.Context, cfg Config) (*sql.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("sqlite: dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// A single connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if cfg.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}
	return db, nil
}

type txFunc func(tx *sql.Tx) error

// withTransaction runs fn inside a transaction, rolling back when fn fails or panics.
func withTransaction(ctx context.Context, db *sql.DB, fn txFunc) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors into persistence sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return persistence.ErrNotFound
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrDuplicate):
		return err
	}

	msg := err.Error()
	if containsAny(msg, "UNIQUE constraint failed", "PRIMARY KEY constraint failed") {
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	}
	return err
}

func containsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// RetryConfig configures retries of transactions that hit a locked database.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a short exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  20 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// withRetry calls fn until it succeeds, fails with a non-transient error, or
// the retry budget is spent.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("sqlite: operation failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, persistence.ErrDuplicate) {
		return false
	}
	return containsAny(err.Error(), "database is locked", "database table is locked", "SQLITE_BUSY")
}
