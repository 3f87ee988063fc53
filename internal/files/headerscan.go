package files

import (
	"strings"
)

// headerScanLimit bounds how deep the header search looks; exports put
// at most a couple dozen title/summary lines above the real headers.
const headerScanLimit = 25

// headerKeywords are the column-name fragments that identify a header
// row across all three export kinds.
var headerKeywords = []string{
	"EAN", "SKU", "CANTIDAD", "DESCRIPCION", "FECHA",
	"TIENDA", "GRUPO", "SALDO", "VENDIDA", "LUGAR", "ITEM",
}

// DetectHeaderRow scores each of the first 25 physical rows by how many
// known keywords appear anywhere in its cells (case-insensitive,
// substring) and returns the index of the best-scoring row, earliest
// winning ties. With no keyword anywhere the first row is assumed.
func DetectHeaderRow(grid [][]string) int {
	best := 0
	bestScore := 0

	limit := len(grid)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		if len(grid[i]) == 0 {
			continue
		}
		rowText := strings.ToUpper(strings.Join(grid[i], " "))
		score := 0
		for _, kw := range headerKeywords {
			if strings.Contains(rowText, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}
