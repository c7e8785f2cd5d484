package converter

import (
	"github.com/farxc/entidades-sync/internal/reconcile/schema"
	"github.com/farxc/entidades-sync/internal/reconcile/utils"
	"github.com/farxc/entidades-sync/internal/store"
	"github.com/go-gota/gota/dataframe"
)

// DfRowToEntity reads one canonical row. NA cells become nil.
func DfRowToEntity(df dataframe.DataFrame, rowIdx int) store.Entity {
	entity := make(store.Entity, len(schema.CanonicalFields))
	for _, field := range schema.CanonicalFields {
		entity[field] = utils.GetValue(field, rowIdx, &df)
	}
	entity[schema.KeyField] = utils.GetStr(schema.KeyField, rowIdx, &df)
	return entity
}

func DfToEntities(df dataframe.DataFrame) []store.Entity {
	entities := make([]store.Entity, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		entities = append(entities, DfRowToEntity(df, i))
	}
	return entities
}
