package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"evelis/internal/dataprocessing"
	"evelis/pkg/contracts/domain"
)

// Report bundles everything the workbook export writes.
type Report struct {
	Summary  domain.SummaryStats
	Stores   []domain.PivotRow
	Products []domain.PivotRow
	Matrix   domain.CategoryMatrix
	Coverage []domain.InventoryCoverage
}

// ReportExporter turns reconciled analytics data into report files.
type ReportExporter struct {
	csvWriter  *CSVWriter
	reportsDir string
}

// NewReportExporter creates a report exporter rooted at reportsDir
func NewReportExporter(reportsDir string) *ReportExporter {
	return &ReportExporter{
		csvWriter:  NewCSVWriter(reportsDir),
		reportsDir: reportsDir,
	}
}

// PivotTable flattens pivot rows into headers plus records. Month
// columns keep calendar order after the total.
func PivotTable(rows []domain.PivotRow) ([]string, [][]string) {
	headers := append([]string{"Nombre", "Total"}, dataprocessing.Months...)

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, 0, len(headers))
		record = append(record, row.Name, formatFloat(row.Total))
		for _, m := range dataprocessing.Months {
			record = append(record, formatFloat(row.Months[m]))
		}
		records = append(records, record)
	}
	return headers, records
}

// MatrixTable flattens the store × category matrix.
func MatrixTable(matrix domain.CategoryMatrix) ([]string, [][]string) {
	headers := append([]string{"Tienda"}, matrix.Categories...)
	headers = append(headers, "Total")

	records := make([][]string, 0, len(matrix.Rows))
	for _, row := range matrix.Rows {
		record := make([]string, 0, len(headers))
		record = append(record, row.Store)
		for _, c := range matrix.Categories {
			record = append(record, formatFloat(row.Breakdowns[c]))
		}
		record = append(record, formatFloat(row.Total))
		records = append(records, record)
	}
	return headers, records
}

// CoverageTable flattens inventory coverage lines.
func CoverageTable(coverage []domain.InventoryCoverage) ([]string, [][]string) {
	headers := []string{"SKU", "Producto", "Almacen", "Stock", "Venta Promedio Mensual", "Cobertura Meses", "Critico"}

	records := make([][]string, 0, len(coverage))
	for _, cov := range coverage {
		months := "Sin ventas"
		if !cov.Unbounded {
			months = formatFloat(cov.CoverageMonths)
		}
		critical := "No"
		if cov.Critical {
			critical = "Si"
		}
		records = append(records, []string{
			cov.SKU,
			cov.Product,
			cov.Store,
			formatFloat(cov.Stock),
			formatFloat(cov.AvgMonthlySales),
			months,
			critical,
		})
	}
	return headers, records
}

var salesHeaders = []string{"Fecha", "Tienda", "Producto", "Cantidad", "Categoria", "SKU"}

// SalesTable flattens reconciled sales records.
func SalesTable(records []domain.SalesRecord) ([]string, [][]string) {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, salesRow(rec))
	}
	return salesHeaders, rows
}

func salesRow(rec domain.SalesRecord) []string {
	date := ""
	if rec.Date != nil {
		date = rec.Date.Format("2006-01-02")
	}
	return []string{
		date,
		rec.Store,
		rec.Product,
		formatFloat(rec.Quantity),
		rec.Category,
		rec.SKU,
	}
}

// ExportPivotCSV writes a pivot table as CSV
func (e *ReportExporter) ExportPivotCSV(filename string, rows []domain.PivotRow) error {
	headers, records := PivotTable(rows)
	return e.csvWriter.WriteSimpleCSV(filename, headers, records)
}

// ExportMatrixCSV writes the category matrix as CSV
func (e *ReportExporter) ExportMatrixCSV(filename string, matrix domain.CategoryMatrix) error {
	headers, records := MatrixTable(matrix)
	return e.csvWriter.WriteSimpleCSV(filename, headers, records)
}

// ExportCoverageCSV writes the inventory coverage as CSV
func (e *ReportExporter) ExportCoverageCSV(filename string, coverage []domain.InventoryCoverage) error {
	headers, records := CoverageTable(coverage)
	return e.csvWriter.WriteSimpleCSV(filename, headers, records)
}

// ExportSalesCSV writes reconciled sales records as CSV. The flat
// sales export is by far the largest report, so rows stream out one
// at a time instead of building the whole table in memory.
func (e *ReportExporter) ExportSalesCSV(filename string, records []domain.SalesRecord) error {
	sw, err := e.csvWriter.CreateStreamWriter(filename, salesHeaders)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := sw.WriteRecord(salesRow(rec)); err != nil {
			sw.Close()
			return err
		}
	}
	return sw.Close()
}

// BuildWorkbook assembles the full report as one Excel workbook with a
// sheet per view. The caller owns the returned file and must Close it.
func BuildWorkbook(report Report) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummarySheet(f, report.Summary); err != nil {
		f.Close()
		return nil, err
	}
	storesHeaders, storesRecords := PivotTable(report.Stores)
	productsHeaders, productsRecords := PivotTable(report.Products)
	matrixHeaders, matrixRecords := MatrixTable(report.Matrix)
	coverageHeaders, coverageRecords := CoverageTable(report.Coverage)
	for _, s := range []sheetTable{
		newSheetTable("Tiendas", storesHeaders, storesRecords),
		newSheetTable("Productos", productsHeaders, productsRecords),
		newSheetTable("Categorias", matrixHeaders, matrixRecords),
		newSheetTable("Inventario", coverageHeaders, coverageRecords),
	} {
		if err := writeTableSheet(f, s.name, s.headers, s.records); err != nil {
			f.Close()
			return nil, err
		}
	}

	// The default sheet is replaced by Resumen
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	return f, nil
}

// TableWorkbook wraps a single flattened table in a one sheet workbook.
func TableWorkbook(sheet string, headers []string, records [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeTableSheet(f, sheet, headers, records); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	return f, nil
}

// ExportWorkbook writes the full report workbook under the reports
// directory.
func (e *ReportExporter) ExportWorkbook(filename string, report Report) error {
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	fullPath := filename
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(e.reportsDir, filename)
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// WriteTableCSV streams a flattened table as UTF-8 CSV with a BOM so
// Excel opens it correctly.
func WriteTableCSV(w io.Writer, headers []string, records [][]string) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for _, record := range records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type sheetTable struct {
	name    string
	headers []string
	records [][]string
}

func newSheetTable(name string, headers []string, records [][]string) sheetTable {
	return sheetTable{name: name, headers: headers, records: records}
}

func writeSummarySheet(f *excelize.File, summary domain.SummaryStats) error {
	const sheet = "Resumen"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	cells := [][]any{
		{"Total Unidades", summary.TotalUnits},
		{"SKUs Activos", summary.ActiveSKUs},
		{"Stock Critico", summary.CriticalStock},
	}
	for i, pair := range cells {
		nameCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(sheet, nameCell, pair[0]); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, valueCell, pair[1]); err != nil {
			return err
		}
	}
	return nil
}

func writeTableSheet(f *excelize.File, sheet string, headers []string, records [][]string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for row, record := range records {
		for col, value := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
