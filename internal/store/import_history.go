package store

import (
	"context"
	"time"

	"github.com/farxc/entidades-sync/internal/db"
	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ImportHistoryStore struct {
	db *sqlx.DB
}

var (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

func (ih *ImportHistoryStore) EnsureSchema(ctx context.Context) error {
	timestampType := "TIMESTAMP"
	if ih.db.DriverName() == db.DriverPostgres {
		timestampType = "TIMESTAMPTZ"
	}

	query := `CREATE TABLE IF NOT EXISTS import_history (
		id TEXT PRIMARY KEY,
		source_file TEXT NOT NULL,
		variant TEXT NOT NULL,
		rows_read INTEGER NOT NULL DEFAULT 0,
		rows_inserted INTEGER NOT NULL DEFAULT 0,
		rows_updated INTEGER NOT NULL DEFAULT 0,
		duplicates_dropped INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		processed_at ` + timestampType + ` NOT NULL
	)`

	if _, err := ih.db.ExecContext(ctx, query); err != nil {
		return types.NewStoreError("create import history table", err)
	}
	return nil
}

// InsertImportRun records one processed file. ID and ProcessedAt are filled
// in when left empty.
func (ih *ImportHistoryStore) InsertImportRun(ctx context.Context, run *ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.ProcessedAt.IsZero() {
		run.ProcessedAt = time.Now().UTC()
	}

	query := `INSERT INTO import_history (
		id,
		source_file,
		variant,
		rows_read,
		rows_inserted,
		rows_updated,
		duplicates_dropped,
		status,
		error_message,
		processed_at
	) VALUES (
		:id,
		:source_file,
		:variant,
		:rows_read,
		:rows_inserted,
		:rows_updated,
		:duplicates_dropped,
		:status,
		:error_message,
		:processed_at
	)`

	if _, err := ih.db.NamedExecContext(ctx, query, run); err != nil {
		return types.NewStoreError("insert import run", err)
	}
	return nil
}

func (ih *ImportHistoryStore) GetLatest(ctx context.Context, limit int) ([]ImportRun, error) {
	query := ih.db.Rebind(`SELECT
		id,
		source_file,
		variant,
		rows_read,
		rows_inserted,
		rows_updated,
		duplicates_dropped,
		status,
		error_message,
		processed_at
	FROM import_history
	ORDER BY processed_at DESC
	LIMIT ?`)

	runs := []ImportRun{}
	if err := ih.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, types.NewStoreError("list import runs", err)
	}
	return runs, nil
}
