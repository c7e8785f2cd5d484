package store

import (
	"time"
)

// Entity is one EntidadesExternas row keyed by canonical field name. Absent
// keys and nil values are stored as NULL.
type Entity map[string]interface{}

// SyncResult counts what one upsert did to the destination.
type SyncResult struct {
	Staged            int
	Updated           int
	Inserted          int
	DuplicatesDropped int
}

// ImportRun represents the 'import_history' table.
type ImportRun struct {
	ID                string    `db:"id"`
	SourceFile        string    `db:"source_file"`
	Variant           string    `db:"variant"`
	RowsRead          int       `db:"rows_read"`
	RowsInserted      int       `db:"rows_inserted"`
	RowsUpdated       int       `db:"rows_updated"`
	DuplicatesDropped int       `db:"duplicates_dropped"`
	Status            string    `db:"status"`
	ErrorMessage      string    `db:"error_message"`
	ProcessedAt       time.Time `db:"processed_at"`
}
