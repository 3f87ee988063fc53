// Package services implements the business logic layer between the
// HTTP handlers and the data packages.
//
// Its centerpiece is the ReconcileService, which owns the cumulative
// analytics state: the product master index, the reconciled sales
// records and the normalized inventory records. The service processes
// uploaded spreadsheet batches in two phases. Master sheets are merged
// into the index first, so sales in the same batch resolve against the
// freshest catalog. Sales and inventory sheets are then reconciled
// concurrently against an immutable view of the index. Sales
// accumulate across batches; an inventory sheet replaces the previous
// stock snapshot.
//
// State survives restarts through the SQLite snapshot store: every
// successful batch persists a full snapshot, and Restore loads it back
// at startup.
//
// Report methods (Summary, PivotByStore, PivotByProduct,
// CategoryMatrix, InventoryCoverage) are thin, lock-protected wrappers
// around the dataprocessing package and never mutate state.
package services
