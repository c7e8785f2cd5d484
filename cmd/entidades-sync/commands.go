package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/farxc/entidades-sync/internal/db"
	"github.com/farxc/entidades-sync/internal/env"
	"github.com/farxc/entidades-sync/internal/logger"
	"github.com/farxc/entidades-sync/internal/reconcile"
	"github.com/farxc/entidades-sync/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"db-driver":  "DB_DRIVER",
	"db-addr":    "DB_ADDR",
	"log-level":  "LOG_LEVEL",
	"encoding":   "CSV_ENCODING",
	"delimiter":  "CSV_DELIMITER",
	"sheet":      "XLSX_SHEET",
	"duplicates": "DUPLICATE_POLICY",
}

type application struct {
	appLogger *logger.Logger
	cfg       config
}

func (a *application) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "entidades-sync",
		Short: "Load donor and supplier spreadsheets into EntidadesExternas",
		Long: `entidades-sync reads a donor or supplier export (.csv or .xlsx), maps its
columns onto the EntidadesExternas fields and upserts the rows by
numero_identificador in a single transaction.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().String("db-driver", db.DriverSQLite, "database driver: sqlite or postgres")
	root.PersistentFlags().String("db-addr", defaultDBAddr, "database file path or DSN")
	root.PersistentFlags().String("log-level", defaultLogLevel, "log level: debug, info, warn, error")

	root.AddCommand(a.syncCommand(), a.historyCommand(), a.initCommand())
	return root
}

func (a *application) setup(cmd *cobra.Command, _ []string) error {
	for name, key := range flagKeys {
		if err := env.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.appLogger.SetLogLevel(cfg.logLevel)
	return nil
}

func (a *application) syncCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "sync --file <path>",
		Short: "Upsert one donor or supplier file",
		Example: `  entidades-sync sync --file donantes.csv
  entidades-sync sync --file proveedores.xlsx --duplicates last
  entidades-sync sync --file export.csv --delimiter ";" --encoding latin1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSync(cmd.Context(), cmd.OutOrStdout(), path)
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "source .csv or .xlsx file")
	cmd.Flags().String("encoding", "auto", "csv encoding: auto, latin1, windows1252, utf8")
	cmd.Flags().String("delimiter", defaultDelimiter, `csv delimiter, "tab" for tabs`)
	cmd.Flags().String("sheet", "", "workbook sheet (default first sheet)")
	cmd.Flags().String("duplicates", "reject", "repeated identifiers: reject or last")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *application) runSync(ctx context.Context, out io.Writer, path string) error {
	const component = "Main"
	started := time.Now()

	storage, closeDB, err := a.openStorage(ctx, a.cfg.createSchema)
	if err != nil {
		return err
	}
	defer closeDB()

	processor := reconcile.NewProcessor(storage, a.appLogger, a.cfg.processor)
	report, err := processor.ProcessFile(ctx, path)
	if err != nil {
		return err
	}

	total, err := storage.Entities.Count(ctx)
	if err != nil {
		a.appLogger.Warn(component, "Could not count entities after sync: error=%v", err)
	}

	fmt.Fprintf(out, "%s (%s): %d rows read, %d updated, %d inserted, %d duplicates dropped, %d entities in store\n",
		report.SourceFile, report.Variant, report.RowsRead,
		report.Result.Updated, report.Result.Inserted, report.Result.DuplicatesDropped, total)
	a.appLogger.Info(component, "Sync completed successfully: duration=%.2f seconds", time.Since(started).Seconds())
	return nil
}

func (a *application) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the latest import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			storage, closeDB, err := a.openStorage(ctx, a.cfg.createSchema)
			if err != nil {
				return err
			}
			defer closeDB()

			runs, err := storage.ImportHistory.GetLatest(ctx, limit)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistorySize, "number of runs to show")
	return cmd
}

func printHistory(out io.Writer, runs []store.ImportRun) error {
	headers := []any{"Processed At", "File", "Variant", "Status", "Read", "Updated", "Inserted", "Dropped", "Error"}
	align := []tw.Align{
		tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft,
		tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignRight,
		tw.AlignLeft,
	}

	config := tablewriter.Config{}
	config.Header.Alignment = tw.CellAlignment{PerColumn: align}
	config.Row.Alignment = tw.CellAlignment{PerColumn: align}
	table := tablewriter.NewTable(out, tablewriter.WithConfig(config))
	table.Header(headers...)

	for _, r := range runs {
		if err := table.Append(
			r.ProcessedAt.Local().Format(time.DateTime),
			r.SourceFile,
			r.Variant,
			r.Status,
			strconv.Itoa(r.RowsRead),
			strconv.Itoa(r.RowsUpdated),
			strconv.Itoa(r.RowsInserted),
			strconv.Itoa(r.DuplicatesDropped),
			r.ErrorMessage,
		); err != nil {
			return fmt.Errorf("failed to append history row: %w", err)
		}
	}
	return table.Render()
}

func (a *application) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the EntidadesExternas and import_history tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, closeDB, err := a.openStorage(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeDB()
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready in %s\n", a.cfg.db.addr)
			return nil
		},
	}
}

func (a *application) openStorage(ctx context.Context, ensureSchema bool) (*store.Storage, func(), error) {
	const component = "Main"

	database, err := db.New(
		a.cfg.db.driver,
		a.cfg.db.addr,
		a.cfg.db.maxOpenConns,
		a.cfg.db.maxIdleConns,
		a.cfg.db.maxIdleTime)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	a.appLogger.Info(component, "Database connection pool established: driver=%s", a.cfg.db.driver)

	storage := store.NewStorage(database)
	if ensureSchema {
		if err := storage.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
	}
	return storage, func() { database.Close() }, nil
}
