package dataprocessing

import (
	"strconv"
	"strings"

	"evelis/pkg/contracts/domain"
)

// DefaultCategory is the bucket every classification chain bottoms out
// in; a record's category is never empty.
const DefaultCategory = "OTROS"

// Known product lines.
const (
	CategoryDeluxe  = "DELUXE"
	CategoryPremium = "PREMIUM"
	CategoryMabRH   = "MAB RH"
)

// categoryColumns are the explicit category-like columns checked first
// when resolving a master row. REFERENCIA leads because in these exports
// it usually carries the commercial line (DELUXE/PREMIUM) while GRUPO is
// the technical kind (TABLERO).
var categoryColumns = []string{
	"REFERENCIA", "GRUPO", "LINEA", "CATEGORIA", "FAMILIA", "CLASIFICACION",
}

// ResolveMasterCategory resolves a master row's category through the
// ordered fallback chain: explicit columns, then any canonical key
// containing a GROUP/CATEG substring, then the reference value itself
// when it reads like a label rather than a code, then DefaultCategory.
func ResolveMasterCategory(row domain.CanonicalRow) string {
	if c := row.FirstString(categoryColumns...); c != "" {
		return strings.ToUpper(strings.TrimSpace(c))
	}
	for k, v := range row {
		if strings.Contains(k, "GROUP") || strings.Contains(k, "CATEG") {
			if s := domain.Stringify(v); strings.TrimSpace(s) != "" {
				return strings.ToUpper(strings.TrimSpace(s))
			}
		}
	}
	if ref := row.FirstString("REFERENCIA", "REF"); len(ref) > 3 && !isNumeric(ref) {
		return strings.ToUpper(strings.TrimSpace(ref))
	}
	return DefaultCategory
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

// keywordRule maps a description predicate to the category it implies.
// Rules are evaluated in order, first match wins, so the order is a
// reviewable artifact: specific line names beat material heuristics.
type keywordRule struct {
	matches  func(desc string) bool
	category string
}

func containsAny(subs ...string) func(string) bool {
	return func(desc string) bool {
		for _, s := range subs {
			if strings.Contains(desc, s) {
				return true
			}
		}
		return false
	}
}

// materialColors are the wood/texture finishes that mark a TABLERO as
// the PREMIUM line in this catalog.
var materialColors = []string{"ARENA", "CAPUCCINO", "ROBLE", "NOGAL", "CENIZA"}

var keywordRules = []keywordRule{
	{containsAny("DELUXE", "DLX"), CategoryDeluxe},
	{containsAny("PREMIUM", "PRM"), CategoryPremium},
	{containsAny("MAB", "RH"), CategoryMabRH},
	{func(desc string) bool {
		return strings.Contains(desc, "TABLERO") && containsAny(materialColors...)(desc)
	}, CategoryPremium},
	{containsAny("TABLERO"), CategoryMabRH},
	{containsAny("CANTO"), CategoryMabRH},
	{containsAny("GRAFFIT", "METALLO"), CategoryDeluxe},
}

// InferCategory derives a category from a free-text product description.
// It returns ok=false when no rule matches.
func InferCategory(description string) (string, bool) {
	if description == "" {
		return "", false
	}
	desc := strings.ToUpper(description)
	for _, r := range keywordRules {
		if r.matches(desc) {
			return r.category, true
		}
	}
	return "", false
}

// ambiguousCategories are resolved categories too generic to report on;
// only for these is keyword inference allowed to override the result.
var ambiguousCategories = map[string]bool{
	"OTROS":   true,
	"OTRO":    true,
	"TABLERO": true,
	"CANTO":   true,
}

// RefineCategory applies the keyword-inference override: when the
// resolved category is one of the ambiguous buckets and the description
// matches a rule, the inferred category wins.
func RefineCategory(category, description string) string {
	if !ambiguousCategories[category] {
		return category
	}
	if inferred, ok := InferCategory(description); ok {
		return inferred
	}
	return category
}
