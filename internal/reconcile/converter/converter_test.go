package converter

import (
	"testing"

	"github.com/farxc/entidades-sync/internal/reconcile/schema"
	"github.com/go-gota/gota/dataframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDfToEntities(t *testing.T) {
	df := dataframe.LoadRecords([][]string{
		{"CodProv", "Nombre", "importe"},
		{"S1", "Imprenta", "12.5"},
		{"S2", "NA", "3"},
	})
	table, err := schema.Normalize(df)
	require.NoError(t, err)

	entities := DfToEntities(table.Dataframe)
	require.Len(t, entities, 2)

	first := entities[0]
	assert.Len(t, first, len(schema.CanonicalFields))
	assert.Equal(t, "S1", first["numero_identificador"])
	assert.Equal(t, "Imprenta", first["nombre_entidad"])
	assert.Equal(t, 12.5, first["importe"])
	assert.Nil(t, first["razon_social"])

	assert.Nil(t, entities[1]["nombre_entidad"])
	assert.Equal(t, 3.0, entities[1]["importe"])
}
