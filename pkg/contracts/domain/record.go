package domain

import (
	"time"
)

// SalesRecord is one reconciled sales transaction. Category is never
// empty (the fallback chain bottoms out at "OTROS") and SKU is never
// empty (sentinel "UNKNOWN" when no candidate identifier exists). A nil
// Date means the source value did not parse; the record is kept but only
// contributes to totals, never to a month bucket.
type SalesRecord struct {
	Date     *time.Time `json:"date" db:"date"`
	Store    string     `json:"store" db:"store"`
	Product  string     `json:"product,omitempty" db:"product"`
	Quantity float64    `json:"quantity" db:"quantity"`
	Category string     `json:"category" db:"category" validate:"required"`
	SKU      string     `json:"sku" db:"sku" validate:"required"`
}

// Year returns the record's calendar year, or 0 when the date is unknown.
func (s SalesRecord) Year() int {
	if s.Date == nil {
		return 0
	}
	return s.Date.Year()
}

// InventoryRecord is one normalized inventory snapshot line. Inventory is
// never joined against the master index.
type InventoryRecord struct {
	SKU     string  `json:"sku,omitempty" db:"sku"`
	Product string  `json:"product,omitempty" db:"product"`
	Stock   float64 `json:"stock" db:"stock"`
	Store   string  `json:"store" db:"store"`
}
