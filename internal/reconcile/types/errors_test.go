package types

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsMatchSentinels(t *testing.T) {
	readErr := NewReadError("donantes.csv", io.ErrUnexpectedEOF)
	assert.ErrorIs(t, readErr, ErrRead)
	assert.ErrorIs(t, readErr, io.ErrUnexpectedEOF)

	storeErr := fmt.Errorf("sync: %w", NewStoreError("commit", io.ErrClosedPipe))
	assert.ErrorIs(t, storeErr, ErrStore)
	var se *StoreError
	assert.True(t, errors.As(storeErr, &se))
	assert.Equal(t, "commit", se.Op)

	schemaErr := &SchemaError{Headers: []string{"a", "b"}, Err: ErrUnrecognizedSchema}
	assert.ErrorIs(t, schemaErr, ErrUnrecognizedSchema)
	assert.NotErrorIs(t, schemaErr, ErrRead)

	dupErr := &DuplicateKeyError{Keys: []string{"D1"}}
	assert.ErrorIs(t, dupErr, ErrDuplicateKey)
}

func TestErrorMessages(t *testing.T) {
	schemaErr := &SchemaError{Headers: []string{"foo", "bar"}, Err: ErrUnrecognizedSchema}
	assert.Equal(t, "unrecognized schema: the file is neither a donor nor a supplier export (headers: foo, bar)", schemaErr.Error())

	missing := &SchemaError{Rows: []int{2, 5}, Err: ErrMissingIdentifier}
	assert.Equal(t, "missing identifier on data rows 2, 5", missing.Error())

	keys := make([]string, 12)
	for i := range keys {
		keys[i] = fmt.Sprintf("K%d", i)
	}
	dupErr := &DuplicateKeyError{Keys: keys}
	assert.Equal(t, "duplicate identifier: K0, K1, K2, K3, K4, K5, K6, K7, K8, K9 and 2 more", dupErr.Error())
}

func TestVariantString(t *testing.T) {
	assert.Equal(t, "donor", VariantDonor.String())
	assert.Equal(t, "supplier", VariantSupplier.String())
	assert.Equal(t, "unknown", Variant(42).String())
	assert.Equal(t, "xlsx", FormatXLSX.String())
}
