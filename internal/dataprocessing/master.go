package dataprocessing

import (
	"evelis/pkg/contracts/domain"
)

// masterCodeColumns are the identifier columns a master row may expose.
// Every non-empty one becomes an index key for the same entry, so the
// product is found whichever code a downstream export happens to carry.
var masterCodeColumns = []string{
	"CODIGO INTERNO MAB",
	"CÓDIGO DE ÍTEM / COMPRADOR",
	"EAN",
	"CODIGO",
	"SKU",
}

// BuildMasterIndex builds a multi-key lookup from product-master rows.
// On key collision the later row wins; merging across files keeps the
// same rule (last-merged-wins).
func BuildMasterIndex(rows []domain.RawRow) domain.MasterIndex {
	index := make(domain.MasterIndex)
	for _, raw := range rows {
		row := raw.Normalize()

		entry := domain.MasterEntry{
			Category:    ResolveMasterCategory(row),
			Reference:   row.FirstString("REFERENCIA", "REF"),
			Description: row.FirstString("DESCRIPCION", "DESCRIPCIÓN", "NOMBRE"),
		}

		for _, col := range masterCodeColumns {
			if identity := CleanCode(row[col]); identity != "" {
				index[identity] = entry
			}
		}
	}
	return index
}

// MergeMasterIndex merges incoming into existing and returns the result,
// allocating when existing is nil. The returned index is the cumulative
// one; the caller owns its lifetime and must serialize merges.
func MergeMasterIndex(existing, incoming domain.MasterIndex) domain.MasterIndex {
	if existing == nil {
		existing = make(domain.MasterIndex, len(incoming))
	}
	existing.Merge(incoming)
	return existing
}
