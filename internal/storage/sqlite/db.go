package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS job_counts (
	environment TEXT PRIMARY KEY,
	count       INTEGER NOT NULL,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS job_count_records (
	id       TEXT PRIMARY KEY,
	total    INTEGER NOT NULL,
	saved_at INTEGER NOT NULL
);
`

// Open opens (creating if needed) the SQLite database at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a single writer keeps WAL commits ordered
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return db, nil
}

// SetJobCount upserts the count reported for an environment.
func SetJobCount(ctx context.Context, db *sql.DB, env string, count int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO job_counts (environment, count, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(environment) DO UPDATE SET count = excluded.count, updated_at = CURRENT_TIMESTAMP`,
		env, count)
	if err != nil {
		return fmt.Errorf("setting job count for %s: %w", env, err)
	}
	return nil
}
