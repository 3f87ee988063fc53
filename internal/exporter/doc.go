// Package exporter writes report files for the analytics dashboard.
//
// This package contains two main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// ReportExporter: Turns pivot tables, the category matrix, and
// inventory coverage into CSV files or a multi-sheet Excel workbook.
//
// Example usage:
//
//	reportExporter := exporter.NewReportExporter("data/reports")
//
//	// Export the store pivot as CSV
//	err := reportExporter.ExportPivotCSV("tiendas.csv", rows)
//
//	// Or write everything into one workbook
//	err = reportExporter.ExportWorkbook("reporte.xlsx", report)
package exporter
