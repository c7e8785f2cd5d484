package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/farxc/entidades-sync/internal/reconcile/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Normalize projects a source table onto CanonicalFields.
//
// The variant is picked by signature column, its renames are applied, fields
// the variant cannot fill become null columns and the result is reordered to
// the canonical order. Headers outside the variant's map are dropped. The
// identifier is always carried as a string and must be set on every row.
func Normalize(df dataframe.DataFrame) (types.CanonicalTable, error) {
	if err := df.Error(); err != nil {
		return types.CanonicalTable{}, fmt.Errorf("normalize: %w", err)
	}

	headers := df.Names()
	src, ok := Detect(headers)
	if !ok {
		return types.CanonicalTable{}, &types.SchemaError{Headers: headers, Err: types.ErrUnrecognizedSchema}
	}

	renames, missing := src.resolve(headers)
	sources := make([]string, len(renames))
	targets := make([]string, len(renames))
	for i, r := range renames {
		sources[i] = r.Source
		targets[i] = r.Target
	}

	projected := df.Select(sources)
	if err := projected.SetNames(targets...); err != nil {
		return types.CanonicalTable{}, fmt.Errorf("normalize %s: rename columns: %w", src.Variant, err)
	}

	nrows := projected.Nrow()
	for _, field := range CanonicalFields {
		if utils.ContainsString(targets, field) {
			continue
		}
		projected = projected.Mutate(nullSeries(field, nrows))
	}

	projected = projected.Select(CanonicalFields)
	if err := projected.Error(); err != nil {
		return types.CanonicalTable{}, fmt.Errorf("normalize %s: %w", src.Variant, err)
	}
	projected = projected.Mutate(keySeries(projected.Col(KeyField)))
	if err := projected.Error(); err != nil {
		return types.CanonicalTable{}, fmt.Errorf("normalize %s: %w", src.Variant, err)
	}

	if rows := rowsMissingKey(projected); len(rows) > 0 {
		return types.CanonicalTable{}, &types.SchemaError{Headers: headers, Rows: rows, Err: types.ErrMissingIdentifier}
	}

	return types.CanonicalTable{
		Variant:        src.Variant,
		Dataframe:      projected,
		MissingHeaders: missing,
	}, nil
}

func nullSeries(name string, n int) series.Series {
	return series.New(make([]interface{}, n), series.String, name)
}

// keySeries rebuilds the identifier as trimmed strings. Numeric cells are
// written in their shortest form so 1001 and 2.5 stay "1001" and "2.5". The
// "NaN" record is read back as NA by the String series.
func keySeries(col series.Series) series.Series {
	keys := make([]string, col.Len())
	for i := range keys {
		elem := col.Elem(i)
		if elem.IsNA() {
			keys[i] = "NaN"
			continue
		}
		switch v := elem.Val().(type) {
		case float64:
			keys[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			keys[i] = strconv.Itoa(v)
		default:
			keys[i] = strings.TrimSpace(elem.String())
		}
	}
	return series.New(keys, series.String, KeyField)
}

// rowsMissingKey returns 1-based data row numbers with no identifier.
func rowsMissingKey(df dataframe.DataFrame) []int {
	var rows []int
	col := df.Col(KeyField)
	for i := 0; i < col.Len(); i++ {
		elem := col.Elem(i)
		if elem.IsNA() || elem.String() == "" {
			rows = append(rows, i+1)
		}
	}
	return rows
}
