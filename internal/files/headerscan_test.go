package files

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectHeaderRow(t *testing.T) {
	tests := []struct {
		name     string
		grid     [][]string
		expected int
	}{
		{
			name: "headers buried under title rows",
			grid: [][]string{
				{"REPORTE DE VENTAS"},
				{"Generado: 01/07/2024"},
				{},
				{"FECHA", "TIENDA", "EAN", "CANTIDAD VENDIDA", "DESCRIPCIÓN DEL ÍTEM"},
				{"15-03-2024", "NORTE", "100", "5", "TABLERO"},
			},
			expected: 3,
		},
		{
			name: "earliest row wins ties",
			grid: [][]string{
				{"EAN", "CANTIDAD"},
				{"EAN", "CANTIDAD"},
			},
			expected: 0,
		},
		{
			name: "no keywords defaults to first row",
			grid: [][]string{
				{"a", "b"},
				{"c", "d"},
			},
			expected: 0,
		},
		{
			name:     "empty grid",
			grid:     nil,
			expected: 0,
		},
		{
			name: "higher scoring row beats an earlier partial match",
			grid: [][]string{
				{"resumen EAN"},
				{"EAN", "SKU", "CANTIDAD", "FECHA", "TIENDA"},
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectHeaderRow(tt.grid))
		})
	}
}

func TestDetectHeaderRowScanLimit(t *testing.T) {
	// A keyword-rich row beyond the scan window must not be considered.
	grid := make([][]string, 0, 30)
	for i := 0; i < 27; i++ {
		grid = append(grid, []string{"relleno"})
	}
	grid = append(grid, []string{"EAN", "SKU", "CANTIDAD", "FECHA"})

	assert.Equal(t, 0, DetectHeaderRow(grid))
}
