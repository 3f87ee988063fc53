package dataprocessing

import (
	"evelis/pkg/contracts/domain"
)

// DefaultStore is assumed when an inventory row names no warehouse.
const DefaultStore = "CENTRAL"

// NormalizeInventory maps inventory snapshot rows into their canonical
// shape via per-field alias fallbacks. Inventory is never joined against
// the master index.
func NormalizeInventory(rows []domain.RawRow) []domain.InventoryRecord {
	records := make([]domain.InventoryRecord, 0, len(rows))
	for _, raw := range rows {
		row := raw.Normalize()

		store := row.FirstString("ALMACEN", "TIENDA", "NOMBRE LUGAR")
		if store == "" {
			store = DefaultStore
		}

		records = append(records, domain.InventoryRecord{
			SKU:     row.FirstString("EAN", "CODIGO", "CÓDIGO DE ÍTEM / COMPRADOR", "CÓDIGO DE PRODUCTO / EAN"),
			Product: row.FirstString("DESCRIPCIÓN DEL ÍTEM", "DESCRIPCION", "DESCRIPCIÓN DE PRODUCTO"),
			Stock:   row.FirstNumber("SALDO FINAL", "CANTIDAD"),
			Store:   store,
		})
	}
	return records
}
