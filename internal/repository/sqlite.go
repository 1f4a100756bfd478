package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/0xPuncker/jobcount-watcher/pkg/types"
	"github.com/sirupsen/logrus"
)

// SQLiteRepository appends every total to job_count_records.
type SQLiteRepository struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func NewSQLiteRepository(db *sql.DB, logger logrus.FieldLogger) *SQLiteRepository {
	return &SQLiteRepository{db: db, logger: logger}
}

func (r *SQLiteRepository) Save(ctx context.Context, total int64) error {
	record := newRecord(total)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceError("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO job_count_records (id, total, saved_at) VALUES (?, ?, ?)`,
		record.ID, record.Total, record.SavedAt.UnixNano(),
	); err != nil {
		return persistenceError("insert record", err)
	}

	if err := tx.Commit(); err != nil {
		return persistenceError("commit", err)
	}

	r.logger.WithFields(logrus.Fields{
		"id":    record.ID,
		"total": total,
	}).Info("Saved job count to sqlite")
	return nil
}

func (r *SQLiteRepository) Latest(ctx context.Context) (types.Record, bool, error) {
	var (
		record  types.Record
		savedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, total, saved_at FROM job_count_records ORDER BY saved_at DESC, rowid DESC LIMIT 1`,
	).Scan(&record.ID, &record.Total, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, false, nil
	}
	if err != nil {
		return types.Record{}, false, fmt.Errorf("failed to read latest record: %w", err)
	}

	record.SavedAt = time.Unix(0, savedAt).UTC()
	return record, true, nil
}

func (r *SQLiteRepository) History(ctx context.Context, limit int64) ([]types.Record, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, total, saved_at FROM job_count_records ORDER BY saved_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var (
			record  types.Record
			savedAt int64
		)
		if err := rows.Scan(&record.ID, &record.Total, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		record.SavedAt = time.Unix(0, savedAt).UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}
