// Package history persists run summaries and per-target check results
// in a local SQLite database, so operators can compare a host's
// pending-reboot state across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/smnsjas/rebootcheck/engine"
	"github.com/smnsjas/rebootcheck/probe"
	"github.com/smnsjas/rebootcheck/tristate"
)

// Store implements engine.Recorder over a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path and
// runs migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("unable to open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id                    TEXT PRIMARY KEY,
	started_at            TEXT NOT NULL,
	finished_at           TEXT NOT NULL,
	targets               INTEGER NOT NULL,
	any_reboot_required   INTEGER NOT NULL,
	any_connection_denied INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id                TEXT PRIMARY KEY,
	run_id            TEXT NOT NULL,
	target            TEXT NOT NULL,
	checked_at        TEXT NOT NULL,
	reboot_required   TEXT NOT NULL,
	registry_pending  TEXT NOT NULL,
	servicing_marker  TEXT NOT NULL,
	connection_denied INTEGER NOT NULL,
	denied_class      TEXT,
	denied_reason     TEXT
);
CREATE INDEX IF NOT EXISTS idx_results_target_checked_at ON results (target, checked_at DESC);
CREATE INDEX IF NOT EXISTS idx_results_run_id ON results (run_id);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// RecordRun stores a finalized run summary.
func (s *Store) RecordRun(ctx context.Context, sum engine.Summary) error {
	query := `
INSERT INTO runs (id, started_at, finished_at, targets, any_reboot_required, any_connection_denied)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		sum.RunID,
		sum.StartedAt.UTC().Format(time.RFC3339Nano),
		sum.FinishedAt.UTC().Format(time.RFC3339Nano),
		sum.Targets,
		boolInt(sum.AnyRebootRequired),
		boolInt(sum.AnyConnectionDenied),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecordResult stores one per-target check result under runID.
func (s *Store) RecordResult(ctx context.Context, runID string, res engine.CheckResult) error {
	query := `
INSERT INTO results (id, run_id, target, checked_at, reboot_required, registry_pending, servicing_marker, connection_denied, denied_class, denied_reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		runID,
		res.Target,
		time.Now().UTC().Format(time.RFC3339Nano),
		res.RebootRequired.String(),
		res.RegistryPending().String(),
		res.ServicingMarkerPresent().String(),
		boolInt(res.RemoteConnectionDenied),
		res.DeniedClass,
		res.DeniedReason,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// Entry is one stored check result.
type Entry struct {
	engine.CheckResult
	CheckedAt time.Time
}

// RecentResults returns the most recent stored results for target,
// newest first. An empty target returns results for all targets.
func (s *Store) RecentResults(ctx context.Context, target string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
SELECT target, checked_at, reboot_required, registry_pending, servicing_marker, connection_denied, denied_class, denied_reason
FROM results`
	args := []any{}
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY checked_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                         Entry
			checkedAt                 string
			reboot, registry, marker  string
			denied                    int
			deniedClass, deniedReason sql.NullString
		)
		if err := rows.Scan(&e.Target, &checkedAt, &reboot, &registry, &marker, &denied, &deniedClass, &deniedReason); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		e.CheckedAt, _ = time.Parse(time.RFC3339Nano, checkedAt)
		e.RebootRequired = tristate.Parse(reboot)
		e.Signals = probe.Signals{
			probe.SignalRegistryPending: tristate.Parse(registry),
			probe.SignalServicingMarker: tristate.Parse(marker),
		}
		e.RemoteConnectionDenied = denied != 0
		e.DeniedClass = deniedClass.String
		e.DeniedReason = deniedReason.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
