package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/persistence/sqlite"
)

// SQLiteHarness provides store access backed by a temporary SQLite database
// for integration-style tests.
type SQLiteHarness struct {
	Storage      *sqlite.Storage
	Catalog      persistence.CatalogStore
	Reservations persistence.ReservationStore
	Accounts     persistence.AccountStore

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a database in a temporary directory. The
// harness is closed automatically when tb finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "rentals.db")

	storage, err := sqlite.Open(path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:      storage,
		Catalog:      storage,
		Reservations: storage,
		Accounts:     storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
