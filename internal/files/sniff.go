package files

import (
	"strings"
)

// Kind classifies what a parsed sheet contains.
type Kind string

const (
	KindUnknown   Kind = "unknown"
	KindSales     Kind = "sales"
	KindInventory Kind = "inventory"
)

func joinedHeaders(headers []string) string {
	return strings.ToUpper(strings.Join(headers, " "))
}

// IsMaster reports whether the headers look like a product master: some
// identifier column next to some classification column. Master sheets
// are merged into the index before anything else in a batch is
// reconciled.
func IsMaster(headers []string) bool {
	keys := joinedHeaders(headers)
	hasCode := strings.Contains(keys, "ITEM") ||
		strings.Contains(keys, "CODIGO INTERNO MAB") ||
		strings.Contains(keys, "EAN")
	hasGroup := strings.Contains(keys, "GRUPO") || strings.Contains(keys, "REFERENCIA")
	return hasCode && hasGroup
}

// DetectKind classifies a non-master sheet as sales or inventory from
// its header names. Sheets with neither shape are KindUnknown and are
// skipped by the batch processor.
func DetectKind(headers []string) Kind {
	keys := joinedHeaders(headers)

	relevant := strings.Contains(keys, "CANTIDAD") ||
		strings.Contains(keys, "TIENDA") ||
		strings.Contains(keys, "ALMACÉN") ||
		strings.Contains(keys, "ALMACEN") ||
		strings.Contains(keys, "LUGAR")
	if !relevant {
		return KindUnknown
	}

	if strings.Contains(keys, "FECHA") || strings.Contains(keys, "CANTIDAD VENDIDA") {
		return KindSales
	}
	if strings.Contains(keys, "SALDO") ||
		strings.Contains(keys, "BODEGA") ||
		strings.Contains(keys, "NOMBRE LUGAR") ||
		(strings.Contains(keys, "CANTIDAD") && !strings.Contains(keys, "VENDIDA")) {
		return KindInventory
	}
	return KindUnknown
}
