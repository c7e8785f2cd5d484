package files

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/farxc/entidades-sync/internal/logger"
	"github.com/farxc/entidades-sync/internal/reconcile/schema"
	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/farxc/entidades-sync/internal/reconcile/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// naValues are cell contents read as null, matching what spreadsheet tools
// treat as missing.
var naValues = []string{"", "NA", "N/A", "NaN", "nan", "NULL", "null", "<nil>", "#N/A"}

type ReadOptions struct {
	Encoding  string
	Delimiter rune
	// Sheet selects the workbook sheet; empty means the first one.
	Sheet string
}

func DefaultReadOptions() ReadOptions {
	return ReadOptions{Encoding: EncodingAuto, Delimiter: ','}
}

func DetectFormat(path string) types.FileFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case types.CSVSuffix:
		return types.FormatCSV
	case types.XLSXSuffix:
		return types.FormatXLSX
	case types.XLSSuffix:
		return types.FormatXLS
	default:
		return types.FormatUnknown
	}
}

// OpenFileAndDecode reads a whole CSV or XLSX file into a dataframe. Every
// failure is a *types.ReadError.
func OpenFileAndDecode(path string, opts ReadOptions, appLogger *logger.Logger) (types.SourceTable, error) {
	const component = "FileDecoder"

	format := DetectFormat(path)
	appLogger.Debug(component, "Reading source file: path=%s format=%s", path, format)

	var records [][]string
	var err error
	switch format {
	case types.FormatCSV:
		records, err = readCSV(path, opts, appLogger)
	case types.FormatXLSX:
		records, err = readXLSX(path, opts, appLogger)
	case types.FormatXLS:
		err = fmt.Errorf("%w: legacy .xls workbooks are not supported, save the file as .xlsx or .csv", types.ErrUnsupportedFormat)
	default:
		err = fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return types.SourceTable{}, types.NewReadError(path, err)
	}

	df, err := recordsToDataframe(records)
	if err != nil {
		return types.SourceTable{}, types.NewReadError(path, err)
	}

	appLogger.Info(component, "Source file loaded: path=%s format=%s rows=%d columns=%d", path, format, df.Nrow(), df.Ncol())
	return types.SourceTable{Path: path, Format: format, Dataframe: df}, nil
}

func readCSV(path string, opts ReadOptions, appLogger *logger.Logger) ([][]string, error) {
	const component = "FileDecoder"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	decoded, encName, err := decode(data, opts.Encoding)
	if err != nil {
		return nil, err
	}
	appLogger.Debug(component, "CSV decoding selected: path=%s encoding=%s", path, encName)

	reader := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	// Row width is checked against the header in recordsToDataframe.
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

func readXLSX(path string, opts ReadOptions, appLogger *logger.Logger) ([][]string, error) {
	const component = "FileDecoder"

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	appLogger.Debug(component, "Reading workbook sheet: path=%s sheet=%s", path, sheet)

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if err := convertNumericCells(f, sheet, rows); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// convertNumericCells rewrites raw numeric data cells in place: date-styled
// serials become ISO dates, other numbers are rounded to the 15 significant
// digits Excel shows. Text cells are left alone.
func convertNumericCells(f *excelize.File, sheet string, rows [][]string) error {
	props, err := f.GetWorkbookProps()
	if err != nil {
		return err
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	dateStyles := map[int]bool{}
	for r := 1; r < len(rows); r++ {
		for c, raw := range rows[r] {
			num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			cellType, err := f.GetCellType(sheet, cell)
			if err != nil {
				return err
			}
			switch cellType {
			case excelize.CellTypeUnset, excelize.CellTypeNumber:
			default:
				continue
			}

			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				return err
			}
			isDate, seen := dateStyles[styleID]
			if !seen {
				if isDate, err = isDateStyle(f, styleID); err != nil {
					return err
				}
				dateStyles[styleID] = isDate
			}

			if isDate {
				t, err := excelize.ExcelDateToTime(num, date1904)
				if err != nil {
					return fmt.Errorf("cell %s: %w", cell, err)
				}
				rows[r][c] = formatExcelTime(t)
				continue
			}
			rows[r][c] = formatExcelNumber(num)
		}
	}
	return nil
}

func isDateStyle(f *excelize.File, styleID int) (bool, error) {
	if styleID == 0 {
		return false, nil
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt), nil
	}
	switch {
	case style.NumFmt >= 14 && style.NumFmt <= 22,
		style.NumFmt >= 45 && style.NumFmt <= 47,
		style.NumFmt >= 27 && style.NumFmt <= 36,
		style.NumFmt >= 50 && style.NumFmt <= 58:
		return true, nil
	}
	return false, nil
}

// isDateFormatCode reports whether a custom number format renders a date or
// time. Quoted literals and bracketed sections such as [Red] are ignored.
func isDateFormatCode(code string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case strings.ContainsRune("ymdhs", r):
			return true
		}
	}
	return false
}

func formatExcelTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}

func formatExcelNumber(v float64) string {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 15, 64), 64)
	if err != nil {
		rounded = v
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// recordsToDataframe turns a header row plus data rows into a dataframe.
// Blank rows are skipped, short rows are padded, and repeated headers are
// rejected. A header-only input gives an empty dataframe with those columns.
func recordsToDataframe(records [][]string) (dataframe.DataFrame, error) {
	if len(records) == 0 || isBlank(records[0]) {
		return dataframe.DataFrame{}, fmt.Errorf("file has no header row")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = utils.NormalizeHeader(h)
	}
	if dups := duplicateHeaders(headers); len(dups) > 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: %s", types.ErrDuplicateHeader, strings.Join(dups, ", "))
	}

	width := len(headers)
	rows := [][]string{headers}
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		if len(rec) > width {
			if !isBlank(rec[width:]) {
				return dataframe.DataFrame{}, fmt.Errorf("data row %d has %d cells but the header has %d", i+1, len(rec), width)
			}
			rec = rec[:width]
		}
		if len(rec) < width {
			padded := make([]string, width)
			copy(padded, rec)
			rec = padded
		}
		rows = append(rows, rec)
	}

	if len(rows) == 1 {
		columns := make([]series.Series, width)
		for i, h := range headers {
			columns[i] = series.New([]string{}, series.String, h)
		}
		df := dataframe.New(columns...)
		return df, df.Error()
	}

	df := dataframe.LoadRecords(rows,
		dataframe.NaNValues(naValues),
		dataframe.WithTypes(identifierTypes()))
	return df, df.Error()
}

// identifierTypes pins every identifier column to String so type inference
// cannot turn "007" into 7 or "12" into 12.000000.
func identifierTypes() map[string]series.Type {
	types := map[string]series.Type{}
	for _, h := range schema.IdentifierSources() {
		types[h] = series.String
	}
	return types
}

func duplicateHeaders(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	var dups []string
	for _, h := range headers {
		if h == "" {
			continue
		}
		if seen[h] && !utils.ContainsString(dups, h) {
			dups = append(dups, h)
		}
		seen[h] = true
	}
	return dups
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
