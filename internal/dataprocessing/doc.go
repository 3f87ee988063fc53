// Package dataprocessing implements the identifier-reconciliation and
// classification core. It turns loosely structured rows from three kinds
// of exports (product master, sales log, inventory snapshot) into a
// canonical dataset keyed by product identity, then aggregates it into
// month-by-entity pivot tables.
//
// # Data Flow
//
//	RawRow → Normalize → {BuildMasterIndex | ReconcileSales | NormalizeInventory}
//	       → canonical records → BuildPivot / BuildCategoryMatrix → reports
//
// # Error Handling
//
// The core never fails on a malformed row. Bad numeric cells coerce to 0,
// missing identifiers degrade to a sentinel, unknown categories resolve
// to the default bucket, and unparseable dates become nil (the record is
// kept but excluded from month buckets). File-level failures belong to
// the extraction collaborator in internal/files, not here.
//
// All functions are pure transformations over their inputs except the
// MasterIndex merge, which mutates a caller-owned cumulative index and
// must be serialized by the caller.
package dataprocessing
