package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/farxc/entidades-sync/internal/env"
	"github.com/farxc/entidades-sync/internal/logger"
	"github.com/farxc/entidades-sync/internal/reconcile/load"
	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/farxc/entidades-sync/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	env.Reset()
	t.Cleanup(env.Reset)

	var out bytes.Buffer
	app := &application{appLogger: logger.New(logger.LevelError, io.Discard)}
	root := app.rootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{",": ',', ";": ';', "tab": '\t', `\t`: '\t', "|": '|'} {
		got, err := parseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseDelimiter(";;")
	assert.Error(t, err)
	_, err = parseDelimiter("")
	assert.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	env.Reset()
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.db.driver)
	assert.Equal(t, "fundacion.db", cfg.db.addr)
	assert.True(t, cfg.createSchema)
	assert.Equal(t, logger.LevelInfo, cfg.logLevel)
	assert.Equal(t, ',', cfg.processor.Read.Delimiter)
	assert.Equal(t, load.DuplicateReject, cfg.processor.DuplicatePolicy)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	env.Reset()
	t.Setenv("CSV_DELIMITER", ";")
	t.Setenv("DUPLICATE_POLICY", "last")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ';', cfg.processor.Read.Delimiter)
	assert.Equal(t, load.DuplicateKeepLast, cfg.processor.DuplicatePolicy)
	assert.Equal(t, logger.LevelDebug, cfg.logLevel)

	t.Setenv("DUPLICATE_POLICY", "first")
	_, err = loadConfig()
	assert.Error(t, err)
}

func TestSyncAndHistoryCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fundacion.db")
	src := filepath.Join(dir, "proveedores.csv")
	require.NoError(t, os.WriteFile(src, []byte("CodProv;Nombre\nS1;Imprenta\nS2;Ferretería\n"), 0o600))

	out, err := run(t, "sync", "--db-addr", dbPath, "--file", src, "--delimiter", ";")
	require.NoError(t, err)
	assert.Contains(t, out, "2 inserted")
	assert.Contains(t, out, "2 entities in store")

	out, err = run(t, "sync", "--db-addr", dbPath, "--file", src, "--delimiter", ";")
	require.NoError(t, err)
	assert.Contains(t, out, "2 updated, 0 inserted")

	out, err = run(t, "history", "--db-addr", dbPath, "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "proveedores.csv")
	assert.Contains(t, out, "supplier")
	assert.Contains(t, out, "success")
}

func TestSyncRejectsUnrecognizedFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "otro.csv")
	require.NoError(t, os.WriteFile(src, []byte("id,name\n1,x\n"), 0o600))

	_, err := run(t, "sync", "--db-addr", filepath.Join(dir, "fundacion.db"), "--file", src)
	assert.ErrorIs(t, err, types.ErrUnrecognizedSchema)
}

func TestSyncRequiresFile(t *testing.T) {
	_, err := run(t, "sync", "--db-addr", filepath.Join(t.TempDir(), "fundacion.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "file" not set`)
}

func TestInitCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fundacion.db")
	out, err := run(t, "init", "--db-addr", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, dbPath)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestPrintHistoryRendersOneRowPerRun(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	runs := []store.ImportRun{
		{SourceFile: "donantes.xlsx", Variant: "donor", Status: store.StatusSuccess, RowsRead: 12, RowsUpdated: 4, RowsInserted: 8, ProcessedAt: at},
		{SourceFile: "roto.csv", Variant: "unknown", Status: store.StatusFailure, ErrorMessage: "unrecognized schema", ProcessedAt: at.Add(time.Minute)},
	}

	var out bytes.Buffer
	require.NoError(t, printHistory(&out, runs))

	text := out.String()
	assert.Contains(t, strings.ToUpper(text), "PROCESSED AT")
	assert.Contains(t, text, at.Local().Format(time.DateTime))

	lineWith := func(needle string) string {
		for _, line := range strings.Split(text, "\n") {
			if strings.Contains(line, needle) {
				return line
			}
		}
		return ""
	}
	donors := lineWith("donantes.xlsx")
	require.NotEmpty(t, donors)
	for _, cell := range []string{"donor", "success", "12", "4", "8"} {
		assert.Contains(t, donors, cell)
	}
	failed := lineWith("roto.csv")
	require.NotEmpty(t, failed)
	assert.Contains(t, failed, "failure")
	assert.Contains(t, failed, "unrecognized schema")
}
