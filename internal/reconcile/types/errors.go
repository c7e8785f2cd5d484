package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnrecognizedSchema means the headers match no known source variant.
	ErrUnrecognizedSchema = errors.New("unrecognized schema")

	// ErrMissingIdentifier means a row has no value for the key column.
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrRead means the input file could not be read into a table.
	ErrRead = errors.New("read error")

	// ErrDuplicateHeader means the input repeats a column header.
	ErrDuplicateHeader = errors.New("duplicate header")

	// ErrUnsupportedFormat means the file extension is not a readable format.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrStore means reading or writing the destination failed.
	ErrStore = errors.New("store error")

	// ErrDuplicateKey means the same identifier appears on several rows.
	ErrDuplicateKey = errors.New("duplicate identifier")
)

// SchemaError reports a header set that could not be normalized.
type SchemaError struct {
	Headers []string
	Rows    []int
	Err     error
}

func (e *SchemaError) Error() string {
	if errors.Is(e.Err, ErrMissingIdentifier) {
		return fmt.Sprintf("%v on data rows %s", e.Err, joinInts(e.Rows, 10))
	}
	return fmt.Sprintf("%v: the file is neither a donor nor a supplier export (headers: %s)",
		e.Err, strings.Join(e.Headers, ", "))
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ReadError wraps failures while loading an input file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool {
	return target == ErrRead
}

func NewReadError(path string, err error) *ReadError {
	return &ReadError{Path: path, Err: err}
}

// StoreError wraps failures while talking to the destination store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// DuplicateKeyError lists identifiers repeated within one input.
type DuplicateKeyError struct {
	Keys []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDuplicateKey, joinStrings(e.Keys, 10))
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

func joinStrings(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:limit], ", "), len(items)-limit)
}

func joinInts(items []int, limit int) string {
	strs := make([]string, len(items))
	for i, n := range items {
		strs[i] = fmt.Sprint(n)
	}
	return joinStrings(strs, limit)
}
