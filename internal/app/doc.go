// Package app assembles the application: it loads configuration,
// initializes logging and OpenTelemetry, opens the SQLite snapshot
// store, restores the reconciliation service state and wires the chi
// router with the full middleware chain.
//
// The cmd binaries stay thin; everything that needs wiring lives here
// so tests can build a complete application in process.
package app
