// Package files is the row-extraction collaborator: it turns spreadsheet
// and CSV exports into the RawRow sequences the reconciliation core
// consumes, without interpreting their contents.
//
// The package owns the two sniffing steps that happen before any
// reconciliation:
//
// Header detection: source exports bury their header row under title
// and summary lines, so the first 25 physical rows are scored by how
// many known header keywords they contain; the best-scoring row
// (earliest on ties) becomes the header row for RawRow extraction.
//
// Kind detection: a parsed sheet is classified as product master, sales
// log or inventory snapshot from its header names, so a mixed batch of
// uploads can be processed in the right order.
//
// Supported containers: .xlsx (excelize), legacy .xls (xlsReader) and
// .csv. File-level failures (unreadable, empty, no sheet) surface here
// as errors; everything row-level is left to the core's tolerant
// coercions.
package files
