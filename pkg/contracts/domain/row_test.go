package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeaders(t *testing.T) {
	row := RawRow{
		{Key: "  fecha ", Value: "15-03-2024"},
		{Key: "Cantidad Vendida", Value: 3.0},
		{Key: "TIENDA", Value: "NORTE"},
		{Key: "tienda", Value: "SUR"}, // collides after normalization
	}

	n := row.Normalize()

	assert.Equal(t, "15-03-2024", n["FECHA"])
	assert.Equal(t, 3.0, n["CANTIDAD VENDIDA"])
	assert.Equal(t, "SUR", n["TIENDA"], "later column silently overwrites on collision")
	assert.Len(t, n, 3)
}

func TestFirstOf(t *testing.T) {
	row := CanonicalRow{
		"A": nil,
		"B": "",
		"C": 0.0,
		"D": "value",
		"E": 7.0,
	}

	v, ok := row.FirstOf("A", "B", "C", "D")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	v, ok = row.FirstOf("C", "E")
	assert.True(t, ok, "numeric zero falls through to the next candidate")
	assert.Equal(t, 7.0, v)

	_, ok = row.FirstOf("A", "B", "C")
	assert.False(t, ok)

	_, ok = row.FirstOf("MISSING")
	assert.False(t, ok)
}

func TestFirstStringAndNumber(t *testing.T) {
	row := CanonicalRow{
		"NUM":  1234.0,
		"STR":  "  8,500 ",
		"BAD":  "n/a",
		"DATE": time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, "1234", row.FirstString("MISSING", "NUM"))
	assert.Equal(t, "", row.FirstString("MISSING"))
	assert.Equal(t, 8500.0, row.FirstNumber("STR"))
	assert.Equal(t, 0.0, row.FirstNumber("BAD"), "malformed numbers coerce to 0")
	assert.Equal(t, 0.0, row.FirstNumber("MISSING"))
	assert.Equal(t, "2024-03-15", row.FirstString("DATE"))
}
