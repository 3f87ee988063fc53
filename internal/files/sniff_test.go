package files

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMaster(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		expected bool
	}{
		{
			name:     "code plus group",
			headers:  []string{"CODIGO INTERNO MAB", "GRUPO", "DESCRIPCION"},
			expected: true,
		},
		{
			name:     "ean plus referencia",
			headers:  []string{"EAN", "REFERENCIA"},
			expected: true,
		},
		{
			name:     "code without classification",
			headers:  []string{"EAN", "CANTIDAD"},
			expected: false,
		},
		{
			name:     "classification without code",
			headers:  []string{"GRUPO", "DESCRIPCION"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsMaster(tt.headers))
		})
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		headers  []string
		expected Kind
	}{
		{
			name:     "sales by fecha",
			headers:  []string{"FECHA", "TIENDA", "EAN", "CANTIDAD"},
			expected: KindSales,
		},
		{
			name:     "sales by cantidad vendida",
			headers:  []string{"CANTIDAD VENDIDA", "NOMBRE LUGAR"},
			expected: KindSales,
		},
		{
			name:     "inventory by saldo",
			headers:  []string{"SALDO FINAL", "ALMACEN", "EAN"},
			expected: KindInventory,
		},
		{
			name:     "inventory by plain cantidad",
			headers:  []string{"CANTIDAD", "TIENDA", "CODIGO"},
			expected: KindInventory,
		},
		{
			name:     "unrelated sheet",
			headers:  []string{"NOMBRE", "TELEFONO"},
			expected: KindUnknown,
		},
		{
			name:     "empty headers",
			headers:  nil,
			expected: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectKind(tt.headers))
		})
	}
}
