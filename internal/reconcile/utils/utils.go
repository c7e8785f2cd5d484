package utils

import (
	"strings"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\ufeff"

func ContainsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// NormalizeHeader trims a header, drops a leading BOM and composes accents
// so "Número" matches whether the export wrote it precomposed or not.
func NormalizeHeader(header string) string {
	h := strings.TrimPrefix(header, utf8BOM)
	return norm.NFC.String(strings.TrimSpace(h))
}

// GetValue returns the typed cell value, or nil when the column is absent
// or the cell is NA.
func GetValue(col string, rowIdx int, df *dataframe.DataFrame) interface{} {
	if df == nil {
		return nil
	}
	if !ContainsString(df.Names(), col) {
		return nil
	}
	elem := df.Col(col).Elem(rowIdx)
	if elem.IsNA() {
		return nil
	}
	return elem.Val()
}

func GetStr(col string, rowIdx int, df *dataframe.DataFrame) string {

	if df == nil {
		return ""
	}

	if ContainsString(df.Names(), col) {
		elem := df.Col(col).Elem(rowIdx)
		if elem.IsNA() {
			return ""
		}
		return elem.String()
	}
	return ""
}

func IsNA(col string, rowIdx int, df *dataframe.DataFrame) bool {
	if df == nil || !ContainsString(df.Names(), col) {
		return true
	}
	return df.Col(col).Elem(rowIdx).IsNA()
}
