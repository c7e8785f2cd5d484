package schema

import (
	"github.com/farxc/entidades-sync/internal/reconcile/types"
	"github.com/farxc/entidades-sync/internal/reconcile/utils"
)

// ColumnRename maps one source header onto a canonical field.
type ColumnRename struct {
	Source string
	Target string
}

// SourceSchema describes one known export layout. Signature is the header
// whose presence identifies the layout.
type SourceSchema struct {
	Variant   types.Variant
	Signature string
	Renames   []ColumnRename
}

var DonorSchema = SourceSchema{
	Variant:   types.VariantDonor,
	Signature: "Número Proveedor",
	Renames: []ColumnRename{
		{"Número Proveedor", "numero_identificador"},
		{"Nombre Proveedor", "nombre_entidad"},
		{"Razón Social", "razon_social"},
		{"CUIT", "cuit"},
		{"tipo", "tipo"},
		{"Contacto", "contacto"},
		{"Correo Electrónico", "email"},
		{"Teléfono", "telefono"},
		{"Observaciones", "observaciones"},
		{"Fecha", "fecha"},
		{"baja", "baja"},
		{"activo", "activo"},
		{"Categor/a Proveedor", "categoria_entidad"},
		{"Categoría Proveedor", "categoria_entidad"},
		{"Importe", "importe"},
		{"Nro_Cuenta", "nro_cuenta"},
		{"Ciudad", "ciudad"},
		{"Pais", "pais"},
		{"tipoCta", "tipo_cuenta"},
		{"importeResultados", "importe_resultados"},
		{"Tipo de Contribuyente", "tipo_contribuyente"},
		{"Frecuencia", "frecuencia"},
		{"f_donacion", "f_donacion"},
		{"fecha_a", "fecha_a"},
		{"fecha_b", "fecha_b"},
		{"detalle_ing", "detalle_ing"},
		{"Cargo", "cargo"},
	},
}

var SupplierSchema = SourceSchema{
	Variant:   types.VariantSupplier,
	Signature: "CodProv",
	Renames: []ColumnRename{
		{"CodProv", "numero_identificador"},
		{"Nombre", "nombre_entidad"},
		{"Cuit", "cuit"},
		{"Tipo", "tipo"},
		{"CondIVA", "condicion_iva"},
		{"contacto", "contacto"},
		{"email", "email"},
		{"tel", "telefono"},
		{"obs", "observaciones"},
		{"fecha", "fecha"},
		{"categoria", "categoria_entidad"},
		{"importe", "importe"},
		{"Ncuenta", "nro_cuenta"},
		{"ciudad", "ciudad"},
		{"pais", "pais"},
		{"TipoCta", "tipo_cuenta"},
		{"importeResultados", "importe_resultados"},
		{"DetalleEgreso", "detalle_egreso"},
	},
}

// sourceSchemas is in detection priority order: the first signature found wins.
var sourceSchemas = []SourceSchema{DonorSchema, SupplierSchema}

// Detect returns the schema whose signature column is among headers.
func Detect(headers []string) (SourceSchema, bool) {
	for _, s := range sourceSchemas {
		if utils.ContainsString(headers, s.Signature) {
			return s, true
		}
	}
	return SourceSchema{Variant: types.VariantUnknown}, false
}

// IdentifierSources returns every source header that maps onto KeyField.
func IdentifierSources() []string {
	var out []string
	for _, s := range sourceSchemas {
		for _, r := range s.Renames {
			if r.Target == KeyField && !utils.ContainsString(out, r.Source) {
				out = append(out, r.Source)
			}
		}
	}
	return out
}

// Targets returns the canonical fields this schema can fill.
func (s SourceSchema) Targets() []string {
	var out []string
	for _, r := range s.Renames {
		if !utils.ContainsString(out, r.Target) {
			out = append(out, r.Target)
		}
	}
	return out
}

// resolve picks, per canonical field, the first mapped source header present
// in headers. Mapped fields with no header present are returned as missing.
func (s SourceSchema) resolve(headers []string) (present []ColumnRename, missing []string) {
	filled := make(map[string]bool)
	for _, r := range s.Renames {
		if filled[r.Target] || !utils.ContainsString(headers, r.Source) {
			continue
		}
		present = append(present, r)
		filled[r.Target] = true
	}
	for _, r := range s.Renames {
		if filled[r.Target] {
			continue
		}
		missing = append(missing, r.Source)
		filled[r.Target] = true
	}
	return present, missing
}
