package schema

// KeyField is the external identifier that keys EntidadesExternas.
const KeyField = "numero_identificador"

// CanonicalFields is the column order of EntidadesExternas. Every normalized
// table carries exactly these columns in this order.
var CanonicalFields = []string{
	KeyField,
	"nombre_entidad",
	"razon_social",
	"cuit",
	"tipo",
	"condicion_iva",
	"contacto",
	"email",
	"telefono",
	"observaciones",
	"fecha",
	"baja",
	"activo",
	"categoria_entidad",
	"importe",
	"nro_cuenta",
	"ciudad",
	"pais",
	"tipo_cuenta",
	"importe_resultados",
	"tipo_contribuyente",
	"frecuencia",
	"f_donacion",
	"fecha_a",
	"fecha_b",
	"detalle_ing",
	"detalle_egreso",
	"cargo",
}

// FieldKind is the loose storage class of a canonical field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindDate
	KindFlag
)

var fieldKinds = map[string]FieldKind{
	"importe":            KindNumber,
	"importe_resultados": KindNumber,
	"fecha":              KindDate,
	"f_donacion":         KindDate,
	"fecha_a":            KindDate,
	"fecha_b":            KindDate,
	"baja":               KindFlag,
	"activo":             KindFlag,
}

func KindOf(field string) FieldKind {
	if k, ok := fieldKinds[field]; ok {
		return k
	}
	return KindText
}

// NonKeyFields returns the canonical fields after the identifier.
func NonKeyFields() []string {
	out := make([]string, 0, len(CanonicalFields)-1)
	for _, f := range CanonicalFields {
		if f != KeyField {
			out = append(out, f)
		}
	}
	return out
}
