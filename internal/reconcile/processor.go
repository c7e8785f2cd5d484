package reconcile

import (
	"context"
	"fmt"

	"github.com/farxc/entidades-sync/internal/logger"
	"github.com/farxc/entidades-sync/internal/reconcile/files"
	"github.com/farxc/entidades-sync/internal/reconcile/load"
	"github.com/farxc/entidades-sync/internal/reconcile/schema"
	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/farxc/entidades-sync/internal/store"
)

type Options struct {
	Read            files.ReadOptions
	DuplicatePolicy load.DuplicatePolicy
	// RecordHistory writes one import_history row per processed file.
	RecordHistory bool
}

func DefaultOptions() Options {
	return Options{
		Read:            files.DefaultReadOptions(),
		DuplicatePolicy: load.DuplicateReject,
		RecordHistory:   true,
	}
}

// Report describes one processed file.
type Report struct {
	SourceFile     string
	Variant        types.Variant
	RowsRead       int
	MissingHeaders []string
	Result         store.SyncResult
	RunID          string
}

type Processor struct {
	storage   *store.Storage
	appLogger *logger.Logger
	opts      Options
}

func NewProcessor(storage *store.Storage, appLogger *logger.Logger, opts Options) *Processor {
	return &Processor{
		storage:   storage,
		appLogger: appLogger,
		opts:      opts,
	}
}

// ProcessFile reads path, normalizes it to the canonical fields and upserts
// the rows into EntidadesExternas. The destination is only written when
// every earlier step succeeded.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Report, error) {
	const component = "Processor"
	p.appLogger.Info(component, "Processing file: path=%s", path)

	report := &Report{SourceFile: path}
	err := p.process(ctx, path, report)
	if err != nil {
		p.appLogger.Error(component, "Processing failed: path=%s err=%v", path, err)
	} else {
		p.appLogger.Info(component, "Processing finished: path=%s variant=%s rows=%d updated=%d inserted=%d",
			path, report.Variant, report.RowsRead, report.Result.Updated, report.Result.Inserted)
	}

	if p.opts.RecordHistory {
		p.recordRun(ctx, report, err)
	}
	return report, err
}

func (p *Processor) process(ctx context.Context, path string, report *Report) error {
	const component = "Processor"

	source, err := files.OpenFileAndDecode(path, p.opts.Read, p.appLogger)
	if err != nil {
		return err
	}
	report.RowsRead = source.Dataframe.Nrow()

	table, err := schema.Normalize(source.Dataframe)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	report.Variant = table.Variant
	report.MissingHeaders = table.MissingHeaders
	if len(table.MissingHeaders) > 0 {
		p.appLogger.Warn(component, "Mapped headers missing, columns left null: variant=%s headers=%v", table.Variant, table.MissingHeaders)
	}

	result, err := load.SyncTable(ctx, table, p.storage, p.opts.DuplicatePolicy, p.appLogger)
	report.Result = result
	return err
}

// recordRun stores the outcome. A history failure is logged and never
// replaces the processing error.
func (p *Processor) recordRun(ctx context.Context, report *Report, procErr error) {
	const component = "Processor"

	run := &store.ImportRun{
		SourceFile:        report.SourceFile,
		Variant:           report.Variant.String(),
		RowsRead:          report.RowsRead,
		RowsInserted:      report.Result.Inserted,
		RowsUpdated:       report.Result.Updated,
		DuplicatesDropped: report.Result.DuplicatesDropped,
		Status:            store.StatusSuccess,
	}
	if procErr != nil {
		run.Status = store.StatusFailure
		run.ErrorMessage = procErr.Error()
		run.RowsInserted = 0
		run.RowsUpdated = 0
	}

	if err := p.storage.ImportHistory.InsertImportRun(ctx, run); err != nil {
		p.appLogger.Error(component, "Failed to record import run: path=%s err=%v", report.SourceFile, err)
		return
	}
	report.RunID = run.ID
}
