package files

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"evelis/pkg/contracts/domain"
)

// Sheet is one extracted source sheet: the detected header names in
// column order plus the rows below them.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []domain.RawRow
}

// ReadSheet extracts the first sheet of an export file. The container
// format is chosen by extension: .xlsx, legacy .xls, or .csv.
func ReadSheet(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadSheetFrom(f, filepath.Base(path))
}

// ReadSheetFrom extracts the first sheet from an already-open source,
// e.g. an uploaded multipart file. The filename only supplies the
// extension.
func ReadSheetFrom(r io.ReadSeeker, filename string) (*Sheet, error) {
	var grid [][]string
	var err error

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		grid, err = readXLSX(r)
	case ".xls":
		grid, err = readXLS(r)
	case ".csv":
		grid, err = readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}

	sheet := buildSheet(filename, grid)
	slog.Debug("extracted sheet",
		slog.String("file", filename),
		slog.Int("columns", len(sheet.Headers)),
		slog.Int("rows", len(sheet.Rows)))
	return sheet, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	// Raw cell values keep dates as serial day counts, which the core's
	// date resolver understands.
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readXLS(r io.ReadSeeker) ([][]string, error) {
	wb, err := xls.OpenReader(r)
	if err != nil {
		return nil, err
	}
	sheet, err := wb.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	var grid [][]string
	for _, row := range sheet.GetRows() {
		var cells []string
		for _, col := range row.GetCols() {
			cells = append(cells, col.GetString())
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// buildSheet locates the header row and converts everything below it
// into RawRows. Cells that parse as numbers become float64 so that
// serial dates and quantities keep their numeric identity.
func buildSheet(name string, grid [][]string) *Sheet {
	headerIdx := DetectHeaderRow(grid)

	var headers []string
	if headerIdx < len(grid) {
		for _, h := range grid[headerIdx] {
			headers = append(headers, strings.TrimSpace(h))
		}
	}

	sheet := &Sheet{Name: name, Headers: headers}
	for i := headerIdx + 1; i < len(grid); i++ {
		row := toRawRow(headers, grid[i])
		if len(row) == 0 {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func toRawRow(headers []string, cells []string) domain.RawRow {
	var row domain.RawRow
	empty := true
	for j, h := range headers {
		if h == "" || j >= len(cells) {
			continue
		}
		cell := strings.TrimSpace(cells[j])
		if cell == "" {
			continue
		}
		empty = false
		row = append(row, domain.Cell{Key: h, Value: typeCell(cell)})
	}
	if empty {
		return nil
	}
	return row
}

// typeCell restores the numeric identity a string grid loses: cells
// that parse cleanly as numbers come back as float64.
func typeCell(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
