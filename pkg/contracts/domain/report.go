package domain

// PivotRow is one aggregation group's total plus its per-month breakdown.
// Total accumulates every record of the group regardless of date quality;
// the month buckets only receive quantities whose dates parsed.
type PivotRow struct {
	Name   string             `json:"name"`
	Total  float64            `json:"total"`
	Months map[string]float64 `json:"months"`
}

// StoreCategoryRow is one store's totals broken down by consolidated
// category, used for the cross-store comparison matrix.
type StoreCategoryRow struct {
	Store      string             `json:"store"`
	Total      float64            `json:"total"`
	Breakdowns map[string]float64 `json:"breakdowns"`
}

// CategoryMatrix is the store × category comparison report. Categories
// holds the display order: the fixed priority lines first, the rest
// alphabetical.
type CategoryMatrix struct {
	Rows       []StoreCategoryRow `json:"rows"`
	Categories []string           `json:"categories"`
}

// InventoryCoverage is one inventory line annotated with its sales run
// rate. Unbounded marks items with stock but no recorded sales, where
// months-of-coverage is undefined.
type InventoryCoverage struct {
	InventoryRecord
	AvgMonthlySales float64 `json:"avg_monthly_sales"`
	CoverageMonths  float64 `json:"coverage_months"`
	Unbounded       bool    `json:"unbounded"`
	Critical        bool    `json:"critical"`
}

// SummaryStats is the dashboard overview block.
type SummaryStats struct {
	TotalUnits    float64 `json:"total_units"`
	ActiveSKUs    int     `json:"active_skus"`
	CriticalStock int     `json:"critical_stock"`
	Years         []int   `json:"years"`
}
