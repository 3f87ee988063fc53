package dataprocessing

import (
	"sort"
	"strings"

	"evelis/pkg/contracts/domain"
)

// Months lists the month bucket names in calendar order. Reports keep
// the Spanish names the business reads.
var Months = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// UnclassifiedGroup labels records whose group key is empty, and is the
// consolidated bucket for the generic OTROS/OTRO categories.
const UnclassifiedGroup = "Sin Clasificar"

// BuildPivot aggregates sales records into per-group month totals. The
// group total accumulates every record; month buckets only receive
// quantities whose date parsed. Groups come back sorted descending by
// total, ties keeping first-seen order.
func BuildPivot(records []domain.SalesRecord, groupKey func(domain.SalesRecord) string) []domain.PivotRow {
	index := make(map[string]int)
	rows := make([]domain.PivotRow, 0)

	for _, rec := range records {
		name := groupKey(rec)
		if name == "" {
			name = UnclassifiedGroup
		}

		i, ok := index[name]
		if !ok {
			months := make(map[string]float64, len(Months))
			for _, m := range Months {
				months[m] = 0
			}
			rows = append(rows, domain.PivotRow{Name: name, Months: months})
			i = len(rows) - 1
			index[name] = i
		}

		if rec.Date != nil {
			rows[i].Months[Months[rec.Date.Month()-1]] += rec.Quantity
		}
		rows[i].Total += rec.Quantity
	}

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Total > rows[b].Total })
	return rows
}

// ConsolidateCategory folds category spelling variants into the closed
// set used for cross-store comparison. Containment rather than equality,
// because exports write the lines with assorted prefixes and suffixes.
func ConsolidateCategory(category string) string {
	c := strings.ToUpper(strings.TrimSpace(category))
	switch {
	case strings.Contains(c, "MAB"):
		return CategoryMabRH
	case strings.Contains(c, "DELUXE"):
		return CategoryDeluxe
	case strings.Contains(c, "PREMIUM"):
		return CategoryPremium
	case c == "OTROS" || c == "OTRO":
		return strings.ToUpper(UnclassifiedGroup)
	case c == "":
		return strings.ToUpper(UnclassifiedGroup)
	default:
		return c
	}
}

// categoryPriority fixes the display order of the known product lines;
// anything else follows alphabetically.
var categoryPriority = []string{CategoryDeluxe, CategoryPremium, CategoryMabRH}

// SortCategories orders categories for display: the fixed priority list
// first, remaining categories alphabetically after.
func SortCategories(categories []string) {
	rank := func(c string) int {
		for i, p := range categoryPriority {
			if c == p {
				return i
			}
		}
		return len(categoryPriority)
	}
	sort.SliceStable(categories, func(a, b int) bool {
		ra, rb := rank(categories[a]), rank(categories[b])
		if ra != rb {
			return ra < rb
		}
		return categories[a] < categories[b]
	})
}

// BuildCategoryMatrix builds the store × consolidated-category summary.
// Rows are sorted descending by store total; the category list carries
// the display order.
func BuildCategoryMatrix(records []domain.SalesRecord) domain.CategoryMatrix {
	index := make(map[string]int)
	rows := make([]domain.StoreCategoryRow, 0)
	seen := make(map[string]bool)

	for _, rec := range records {
		store := rec.Store
		if store == "" {
			store = "Otros"
		}
		category := ConsolidateCategory(rec.Category)
		seen[category] = true

		i, ok := index[store]
		if !ok {
			rows = append(rows, domain.StoreCategoryRow{
				Store:      store,
				Breakdowns: make(map[string]float64),
			})
			i = len(rows) - 1
			index[store] = i
		}
		rows[i].Breakdowns[category] += rec.Quantity
		rows[i].Total += rec.Quantity
	}

	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	SortCategories(categories)

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Total > rows[b].Total })
	return domain.CategoryMatrix{Rows: rows, Categories: categories}
}
