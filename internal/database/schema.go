package database

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// SchemaManager performs the one-shot schema bootstrap. Concurrent callers
// block on the in-flight run; a failed run rewinds so the next caller
// retries. Once a run succeeds, Ensure becomes a no-op for the process.
type SchemaManager struct {
	db     DB
	logger *logrus.Logger

	mu   sync.Mutex
	done bool
}

// NewSchemaManager creates a new SchemaManager
func NewSchemaManager(db DB, logger *logrus.Logger) *SchemaManager {
	return &SchemaManager{db: db, logger: logger}
}

// Ensure runs the idempotent schema bootstrap exactly once per process.
func (m *SchemaManager) Ensure() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done {
		return nil
	}

	if err := m.bootstrap(); err != nil {
		// Latch stays open so the next request retries
		return fmt.Errorf("schema bootstrap failed: %w", err)
	}

	m.done = true
	return nil
}

// bootstrap creates missing tables and migrates legacy ones. All statements
// are idempotent so partial failures are safe to re-run.
func (m *SchemaManager) bootstrap() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS route_groups (
			id          SERIAL PRIMARY KEY,
			key         TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS routes (
			id          SERIAL PRIMARY KEY,
			group_id    INTEGER NOT NULL REFERENCES route_groups(id),
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS buses (
			id              SERIAL PRIMARY KEY,
			route_id        INTEGER REFERENCES routes(id),
			name            TEXT NOT NULL,
			plate_number    TEXT NOT NULL DEFAULT '',
			capacity        INTEGER NOT NULL CHECK (capacity >= 1),
			available_seats INTEGER NOT NULL DEFAULT 0,
			price           NUMERIC(10,2) NOT NULL DEFAULT 0,
			route_text      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS trip_schedules (
			id             SERIAL PRIMARY KEY,
			route_id       INTEGER NOT NULL,
			bus_id         INTEGER NOT NULL,
			departure_date TEXT NOT NULL DEFAULT '',
			departure_time TEXT NOT NULL DEFAULT '',
			price          NUMERIC(10,2) NOT NULL DEFAULT 0,
			status         TEXT NOT NULL DEFAULT 'active',
			started_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			ended_at       TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_schedules_status ON trip_schedules(status)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_schedules_route_id ON trip_schedules(route_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_schedules_bus_id ON trip_schedules(bus_id)`,
		`CREATE TABLE IF NOT EXISTS passengers (
			id         SERIAL PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name  TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			nok_name   TEXT,
			nok_phone  TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            SERIAL PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			phone         TEXT NOT NULL DEFAULT '',
			password_hash TEXT,
			google_id     TEXT,
			picture_url   TEXT,
			auth_method   TEXT NOT NULL DEFAULT 'email',
			verified      BOOLEAN NOT NULL DEFAULT FALSE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS auth_sessions (
			token      TEXT PRIMARY KEY,
			user_id    INTEGER NOT NULL REFERENCES users(id),
			user_agent TEXT NOT NULL DEFAULT '',
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id           SERIAL PRIMARY KEY,
			passenger_id INTEGER NOT NULL REFERENCES passengers(id),
			bus_id       INTEGER NOT NULL,
			seat_number  TEXT NOT NULL,
			price_paid   NUMERIC(10,2) NOT NULL DEFAULT 0,
			status       TEXT NOT NULL DEFAULT 'pending',
			external_ref TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_external_ref ON bookings(external_ref)`,
		`CREATE TABLE IF NOT EXISTS seat_locks (
			id          SERIAL PRIMARY KEY,
			bus_id      INTEGER NOT NULL,
			seat_number TEXT NOT NULL,
			locked_by   TEXT NOT NULL,
			expires_at  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS booking_receipts (
			id            SERIAL PRIMARY KEY,
			booking_id    INTEGER NOT NULL UNIQUE REFERENCES bookings(id),
			receipt_url   TEXT NOT NULL,
			drive_file_id TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := m.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute bootstrap statement: %w", err)
		}
	}

	// Legacy bookings and seat_locks predate trip scheduling; add the
	// nullable trip_id column when introspection shows it missing.
	for _, table := range []string{"bookings", "seat_locks"} {
		hasColumn, err := m.columnExists(table, "trip_id")
		if err != nil {
			return err
		}
		if !hasColumn {
			m.logger.WithField("table", table).Info("Adding trip_id column")
			if _, err := m.db.Exec(
				fmt.Sprintf(`ALTER TABLE %s ADD COLUMN trip_id INTEGER`, table),
			); err != nil {
				return fmt.Errorf("failed to add trip_id to %s: %w", table, err)
			}
		}
		if _, err := m.db.Exec(
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_trip_id ON %s(trip_id)`, table, table),
		); err != nil {
			return fmt.Errorf("failed to index trip_id on %s: %w", table, err)
		}
	}

	m.logger.Info("Schema bootstrap complete")
	return nil
}

// columnExists checks information_schema for a column on a table
func (m *SchemaManager) columnExists(table, column string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM information_schema.columns
		WHERE table_name = $1 AND column_name = $2
	`
	if err := m.db.QueryRow(query, table, column).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to introspect %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}
