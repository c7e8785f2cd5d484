package reconcile

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/farxc/entidades-sync/internal/db"
	"github.com/farxc/entidades-sync/internal/logger"
	"github.com/farxc/entidades-sync/internal/reconcile/load"
	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/farxc/entidades-sync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts Options) (*Processor, *store.Storage) {
	t.Helper()
	conn, err := db.New(db.DriverSQLite, filepath.Join(t.TempDir(), "fundacion.db"), 1, 1, "1m")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	storage := store.NewStorage(conn)
	require.NoError(t, storage.EnsureSchema(context.Background()))
	return NewProcessor(storage, logger.New(logger.LevelError, io.Discard), opts), storage
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestProcessDonorFile(t *testing.T) {
	ctx := context.Background()
	p, storage := setup(t, DefaultOptions())
	path := writeCSV(t, "donantes.csv", "Número Proveedor,Nombre Proveedor,Cargo\nD1,Alice,Socia\nD2,Bob,\n")

	report, err := p.ProcessFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, types.VariantDonor, report.Variant)
	assert.Equal(t, 2, report.RowsRead)
	assert.Equal(t, store.SyncResult{Staged: 2, Inserted: 2}, report.Result)
	assert.Contains(t, report.MissingHeaders, "Razón Social")
	assert.NotEmpty(t, report.RunID)

	got, err := storage.Entities.GetByID(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["nombre_entidad"])
	assert.Equal(t, "Socia", got["cargo"])
	assert.Nil(t, got["condicion_iva"])
	assert.Nil(t, got["detalle_egreso"])

	runs, err := storage.ImportHistory.GetLatest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusSuccess, runs[0].Status)
	assert.Equal(t, "donor", runs[0].Variant)
	assert.Equal(t, 2, runs[0].RowsInserted)
}

func TestProcessSupplierUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	p, storage := setup(t, DefaultOptions())

	_, err := p.ProcessFile(ctx, writeCSV(t, "proveedores.csv", "CodProv,Nombre,CondIVA\nS1,Imprenta,RI\n"))
	require.NoError(t, err)

	report, err := p.ProcessFile(ctx, writeCSV(t, "proveedores.csv", "CodProv,Nombre,CondIVA\nS1,Imprenta Sur,Monotributo\nS2,Ferretería,RI\n"))
	require.NoError(t, err)
	assert.Equal(t, types.VariantSupplier, report.Variant)
	assert.Equal(t, store.SyncResult{Staged: 2, Updated: 1, Inserted: 1}, report.Result)

	n, err := storage.Entities.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := storage.Entities.GetByID(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Imprenta Sur", got["nombre_entidad"])
	assert.Equal(t, "Monotributo", got["condicion_iva"])
}

func TestProcessUnrecognizedSchemaLeavesDestinationUntouched(t *testing.T) {
	ctx := context.Background()
	p, storage := setup(t, DefaultOptions())

	_, err := p.ProcessFile(ctx, writeCSV(t, "ok.csv", "CodProv,Nombre\nS1,Imprenta\n"))
	require.NoError(t, err)

	report, err := p.ProcessFile(ctx, writeCSV(t, "otro.csv", "id,name\n1,x\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnrecognizedSchema)
	assert.Equal(t, types.VariantUnknown, report.Variant)

	n, err := storage.Entities.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	runs, err := storage.ImportHistory.GetLatest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	var failed *store.ImportRun
	for i := range runs {
		if runs[i].Status == store.StatusFailure {
			failed = &runs[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "unknown", failed.Variant)
	assert.Contains(t, failed.ErrorMessage, "unrecognized schema")
}

func TestProcessDuplicatePolicy(t *testing.T) {
	ctx := context.Background()
	content := "CodProv,Nombre\nS1,a\nS1,b\n"

	p, storage := setup(t, DefaultOptions())
	_, err := p.ProcessFile(ctx, writeCSV(t, "dup.csv", content))
	assert.ErrorIs(t, err, types.ErrDuplicateKey)
	n, err := storage.Entities.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	opts := DefaultOptions()
	opts.DuplicatePolicy = load.DuplicateKeepLast
	p, storage = setup(t, opts)
	report, err := p.ProcessFile(ctx, writeCSV(t, "dup.csv", content))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Result.DuplicatesDropped)

	got, err := storage.Entities.GetByID(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "b", got["nombre_entidad"])
}

func TestProcessUnreadableFile(t *testing.T) {
	opts := DefaultOptions()
	opts.RecordHistory = false
	p, storage := setup(t, opts)

	_, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "legacy.xls"))
	assert.ErrorIs(t, err, types.ErrRead)

	runs, err := storage.ImportHistory.GetLatest(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
