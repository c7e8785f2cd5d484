package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/farxc/entidades-sync/internal/db"
	"github.com/farxc/entidades-sync/internal/reconcile/schema"
	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/jmoiron/sqlx"
)

const (
	EntitiesTable = `"EntidadesExternas"`
	stagingTable  = "tmp_entidades_staging"
)

type EntityStore struct {
	db *sqlx.DB
}

func (es *EntityStore) isPostgres() bool {
	return es.db.DriverName() == db.DriverPostgres
}

// stagingRef qualifies the staging table with the session's temporary
// schema so a permanent table of the same name is never touched.
func (es *EntityStore) stagingRef() string {
	if es.isPostgres() {
		return "pg_temp." + stagingTable
	}
	return "temp." + stagingTable
}

// columnType maps a canonical field to its column type. Postgres keeps
// everything as TEXT since the source files carry loosely typed values.
func (es *EntityStore) columnType(field string) string {
	if es.isPostgres() {
		return "TEXT"
	}
	switch schema.KindOf(field) {
	case schema.KindNumber, schema.KindFlag:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}

func (es *EntityStore) columnDefs(withKey bool) string {
	defs := make([]string, len(schema.CanonicalFields))
	for i, f := range schema.CanonicalFields {
		defs[i] = fmt.Sprintf("%s %s", f, es.columnType(f))
		if withKey && f == schema.KeyField {
			defs[i] += " PRIMARY KEY"
		}
	}
	return strings.Join(defs, ",\n\t\t")
}

func (es *EntityStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		%s
	)`, EntitiesTable, es.columnDefs(true))

	if _, err := es.db.ExecContext(ctx, query); err != nil {
		return types.NewStoreError("create entities table", err)
	}
	return nil
}

// Upsert writes entities into EntidadesExternas inside one transaction:
// rows are staged in a temporary table, existing identifiers are updated
// from it and new ones inserted. On any error nothing is written.
// Identifiers are expected to be unique within entities.
func (es *EntityStore) Upsert(ctx context.Context, entities []Entity) (SyncResult, error) {
	result := SyncResult{}

	tx, err := es.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, types.NewStoreError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := es.createStaging(ctx, tx); err != nil {
		return result, err
	}

	staged, err := stageEntities(ctx, tx, es.stagingRef(), entities)
	result.Staged = staged
	if err != nil {
		return result, err
	}

	updated, err := execCount(ctx, tx, es.updateQuery())
	if err != nil {
		return result, types.NewStoreError("update existing entities", err)
	}
	result.Updated = updated

	columns := strings.Join(schema.CanonicalFields, ", ")
	inserted, err := execCount(ctx, tx, fmt.Sprintf(`INSERT INTO %s (%s)
		SELECT %s FROM %s
		WHERE %s NOT IN (SELECT %s FROM %s)`,
		EntitiesTable, columns, columns, es.stagingRef(),
		schema.KeyField, schema.KeyField, EntitiesTable))
	if err != nil {
		return result, types.NewStoreError("insert new entities", err)
	}
	result.Inserted = inserted

	if _, err := tx.ExecContext(ctx, "DROP TABLE "+es.stagingRef()); err != nil {
		return result, types.NewStoreError("drop staging table", err)
	}
	if err := tx.Commit(); err != nil {
		return result, types.NewStoreError("commit", err)
	}
	return result, nil
}

func (es *EntityStore) createStaging(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+es.stagingRef()); err != nil {
		return types.NewStoreError("reset staging table", err)
	}

	suffix := ""
	if es.isPostgres() {
		suffix = " ON COMMIT DROP"
	}
	query := fmt.Sprintf(`CREATE TEMP TABLE %s (
		%s
	)%s`, stagingTable, es.columnDefs(false), suffix)

	if _, err := tx.ExecContext(ctx, query); err != nil {
		return types.NewStoreError("create staging table", err)
	}
	return nil
}

func stageEntities(ctx context.Context, tx *sqlx.Tx, table string, entities []Entity) (int, error) {
	columns := strings.Join(schema.CanonicalFields, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(schema.CanonicalFields)), ", ")
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, columns, placeholders)))
	if err != nil {
		return 0, types.NewStoreError("prepare staging insert", err)
	}
	defer stmt.Close()

	staged := 0
	for _, e := range entities {
		if _, err := stmt.ExecContext(ctx, e.args()...); err != nil {
			return staged, types.NewStoreError(fmt.Sprintf("stage entity %v", e[schema.KeyField]), err)
		}
		staged++
	}
	return staged, nil
}

// updateQuery overwrites every non-key column of staged identifiers with
// the staged values. Correlated subqueries keep it valid on both dialects.
func (es *EntityStore) updateQuery() string {
	fields := schema.NonKeyFields()
	sets := make([]string, len(fields))
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = (SELECT s.%s FROM %s s WHERE s.%s = %s.%s)",
			f, f, es.stagingRef(), schema.KeyField, EntitiesTable, schema.KeyField)
	}
	return fmt.Sprintf(`UPDATE %s SET
		%s
	WHERE %s IN (SELECT %s FROM %s)`,
		EntitiesTable, strings.Join(sets, ",\n\t\t"),
		schema.KeyField, schema.KeyField, es.stagingRef())
}

func (es *EntityStore) GetByID(ctx context.Context, id string) (Entity, error) {
	query := es.db.Rebind(fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(schema.CanonicalFields, ", "), EntitiesTable, schema.KeyField))

	row := es.db.QueryRowxContext(ctx, query, id)
	raw := map[string]interface{}{}
	if err := row.MapScan(raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, types.NewStoreError("get entity", err)
	}

	entity := Entity{}
	for k, v := range raw {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		entity[k] = v
	}
	return entity, nil
}

func (es *EntityStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := es.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+EntitiesTable); err != nil {
		return 0, types.NewStoreError("count entities", err)
	}
	return count, nil
}

// args returns the entity values in canonical column order.
func (e Entity) args() []interface{} {
	out := make([]interface{}, len(schema.CanonicalFields))
	for i, f := range schema.CanonicalFields {
		out[i] = e[f]
	}
	return out
}

func execCount(ctx context.Context, tx *sqlx.Tx, query string) (int, error) {
	res, err := tx.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
