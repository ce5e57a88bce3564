package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type schemaMigration struct {
	version    string
	statements []string
}

// migrations are applied in order and recorded in schema_migrations.
var migrations = []schemaMigration{
	{
		version: "0001_initial",
		statements: []string{
			`CREATE TABLE properties (
				id          TEXT PRIMARY KEY,
				owner_id    TEXT NOT NULL,
				address     TEXT NOT NULL DEFAULT '',
				city        TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL
			)`,
			`CREATE INDEX idx_properties_owner ON properties(owner_id)`,
			`CREATE TABLE property_rooms (
				property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
				position    INTEGER NOT NULL,
				room_id     TEXT NOT NULL,
				PRIMARY KEY (property_id, position)
			)`,
			`CREATE TABLE rooms (
				id             TEXT PRIMARY KEY,
				property_id    TEXT NOT NULL,
				owner_id       TEXT NOT NULL,
				city           TEXT NOT NULL DEFAULT '',
				city_key       TEXT NOT NULL DEFAULT '',
				type           TEXT NOT NULL,
				monthly_rent   REAL NOT NULL,
				amenities      TEXT NOT NULL DEFAULT '[]',
				available_from TEXT NOT NULL,
				available_to   TEXT NOT NULL,
				created_at     TEXT NOT NULL,
				updated_at     TEXT NOT NULL
			)`,
			`CREATE INDEX idx_rooms_city_key ON rooms(city_key)`,
			`CREATE TABLE bookings (
				id         TEXT PRIMARY KEY,
				room_id    TEXT NOT NULL,
				owner_id   TEXT NOT NULL,
				student_id TEXT NOT NULL,
				start_date TEXT NOT NULL,
				end_date   TEXT NOT NULL,
				status     TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX idx_bookings_room_status ON bookings(room_id, status)`,
			`CREATE INDEX idx_bookings_owner ON bookings(owner_id)`,
			`CREATE INDEX idx_bookings_student ON bookings(student_id)`,
			`CREATE TABLE accounts (
				id             TEXT PRIMARY KEY,
				name           TEXT NOT NULL DEFAULT '',
				email          TEXT NOT NULL,
				email_key      TEXT NOT NULL UNIQUE,
				password_hash  TEXT NOT NULL,
				role           TEXT NOT NULL,
				university     TEXT NOT NULL DEFAULT '',
				student_number TEXT NOT NULL DEFAULT '',
				contact_number TEXT NOT NULL DEFAULT '',
				created_at     TEXT NOT NULL
			)`,
		},
	},
}

// Migrate creates the schema_migrations table and applies every migration
// that has not been recorded yet. It is safe to call repeatedly.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := s.migrationApplied(ctx, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = withTransaction(ctx, s.db, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("sqlite: migration %s: %w", m.version, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
				m.version, time.Now().UTC().Format(time.RFC3339))
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) migrationApplied(ctx context.Context, version string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ? LIMIT 1`, version).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: check migration %s: %w", version, err)
	}
	return true, nil
}
