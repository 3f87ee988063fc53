package dataprocessing

import (
	"sort"

	"evelis/pkg/contracts/domain"
)

// CriticalStockLevel marks inventory lines considered near-stockout on
// the overview dashboard.
const CriticalStockLevel = 5

// FilterByYear keeps the sales records dated in the given year. Year 0
// means no filter. Records without a date never match a concrete year.
func FilterByYear(records []domain.SalesRecord, year int) []domain.SalesRecord {
	if year == 0 {
		return records
	}
	out := make([]domain.SalesRecord, 0, len(records))
	for _, r := range records {
		if r.Date != nil && r.Date.Year() == year {
			out = append(out, r)
		}
	}
	return out
}

// Years lists the distinct calendar years present in the record set,
// newest first, for the report year filter.
func Years(records []domain.SalesRecord) []int {
	seen := make(map[int]bool)
	for _, r := range records {
		if r.Date != nil {
			seen[r.Date.Year()] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Summarize computes the overview stats: total units sold, distinct
// active SKUs, and inventory lines below the critical stock level.
func Summarize(records []domain.SalesRecord, inventory []domain.InventoryRecord) domain.SummaryStats {
	skus := make(map[string]bool)
	var total float64
	for _, r := range records {
		total += r.Quantity
		skus[r.SKU] = true
	}
	critical := 0
	for _, inv := range inventory {
		if inv.Stock < CriticalStockLevel {
			critical++
		}
	}
	return domain.SummaryStats{
		TotalUnits:    total,
		ActiveSKUs:    len(skus),
		CriticalStock: critical,
		Years:         Years(records),
	}
}

// AnalyzeCoverage annotates each inventory line with its sales run rate:
// average monthly sales over a 12-month horizon and months of stock
// coverage. Items with stock but no sales are Unbounded; items covering
// less than one month are Critical.
func AnalyzeCoverage(inventory []domain.InventoryRecord, records []domain.SalesRecord) []domain.InventoryCoverage {
	totals := make(map[string]float64)
	for _, r := range records {
		totals[r.SKU] += r.Quantity
	}

	out := make([]domain.InventoryCoverage, 0, len(inventory))
	for _, inv := range inventory {
		avg := totals[inv.SKU] / 12
		cov := domain.InventoryCoverage{
			InventoryRecord: inv,
			AvgMonthlySales: avg,
		}
		if avg > 0 {
			cov.CoverageMonths = inv.Stock / avg
			cov.Critical = cov.CoverageMonths < 1
		} else {
			cov.Unbounded = true
		}
		out = append(out, cov)
	}
	return out
}
