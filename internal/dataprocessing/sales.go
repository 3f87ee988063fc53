package dataprocessing

import (
	"strings"

	"evelis/pkg/contracts/domain"
)

// salesCodeColumns are the identifier candidates on a sales row, most
// specific first. Generic EAN columns come late because in some store
// exports they hold a store-level code, not the product's.
var salesCodeColumns = []string{
	"CÓDIGO DE ÍTEM / COMPRADOR",
	"CÓDIGO EAN DEL ITEM",
	"CODIGO INTERNO MAB",
	"EAN",
	"SKU",
	"REF",
	"REFERENCIA",
	"MATERIAL",
	"CÓDIGO",
}

// UnknownSKU is the sentinel used when a sales row carries no
// identifier at all.
const UnknownSKU = "UNKNOWN"

// ReconcileSales joins sales rows against the master index and resolves
// each row's category, date and quantity. The candidate codes are probed
// in order and the first index hit wins; a row that misses everywhere
// still produces a record, with the first non-empty raw code (or the
// UnknownSKU sentinel) as its SKU.
//
// Rows whose quantity coerces to exactly 0 are excluded from the output.
func ReconcileSales(rows []domain.RawRow, index domain.MasterIndex) []domain.SalesRecord {
	records := make([]domain.SalesRecord, 0, len(rows))
	for _, raw := range rows {
		row := raw.Normalize()

		var matched domain.MasterEntry
		var sku string
		for _, col := range salesCodeColumns {
			rawCode, ok := row.FirstOf(col)
			if !ok {
				continue
			}
			clean := CleanCode(rawCode)
			if clean == "" {
				continue
			}
			if entry, found := index[clean]; found {
				matched = entry
				// The code that matched becomes the record's SKU.
				sku = domain.Stringify(rawCode)
				break
			}
		}
		if sku == "" {
			if sku = row.FirstString(salesCodeColumns...); sku == "" {
				sku = UnknownSKU
			}
		}

		product := row.FirstString("DESCRIPCIÓN DEL ÍTEM", "DESCRIPCION", "DESCRIPCIÓN")
		if product == "" {
			product = matched.Description
		}

		category := matched.Category
		if category == "" {
			category = strings.ToUpper(strings.TrimSpace(row.FirstString("GRUPO", "LINEA", "CATEGORIA")))
		}
		if category == "" {
			category = DefaultCategory
		}
		category = RefineCategory(category, product)

		quantity := row.FirstNumber("CANTIDAD VENDIDA", "CANTIDAD", "VENTA", "CANT")
		if quantity == 0 {
			continue
		}

		dateCell, _ := row.FirstOf("FECHA", "FECHA FINAL", "FECHA INICIAL")

		records = append(records, domain.SalesRecord{
			Date:     ResolveDate(dateCell),
			Store:    row.FirstString("TIENDA", "DESCRIPCIÓN", "DESCRIPCIÓN DEL ÍTEM", "NOMBRE LUGAR", "ALMACEN"),
			Product:  product,
			Quantity: quantity,
			Category: category,
			SKU:      sku,
		})
	}
	return records
}
