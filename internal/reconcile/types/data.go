package types

import "github.com/go-gota/gota/dataframe"

// Variant identifies which export a source table came from.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantDonor
	VariantSupplier
)

var VariantNames = map[Variant]string{
	VariantUnknown:  "unknown",
	VariantDonor:    "donor",
	VariantSupplier: "supplier",
}

func (v Variant) String() string {
	if name, ok := VariantNames[v]; ok {
		return name
	}
	return VariantNames[VariantUnknown]
}

type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatCSV
	FormatXLSX
	FormatXLS
)

const (
	CSVSuffix  = ".csv"
	XLSXSuffix = ".xlsx"
	XLSSuffix  = ".xls"
)

var FileFormatNames = map[FileFormat]string{
	FormatUnknown: "unknown",
	FormatCSV:     "csv",
	FormatXLSX:    "xlsx",
	FormatXLS:     "xls",
}

func (f FileFormat) String() string {
	if name, ok := FileFormatNames[f]; ok {
		return name
	}
	return FileFormatNames[FormatUnknown]
}

// SourceTable is a raw input file read fully into memory.
type SourceTable struct {
	Path      string
	Format    FileFormat
	Dataframe dataframe.DataFrame
}

// CanonicalTable holds rows projected onto the canonical field list.
type CanonicalTable struct {
	Variant   Variant
	Dataframe dataframe.DataFrame
	// MissingHeaders lists mapped source headers the file did not carry.
	MissingHeaders []string
}

func (c CanonicalTable) Len() int {
	return c.Dataframe.Nrow()
}
