package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evelis/pkg/contracts/domain"
)

func masterRow(cells ...domain.Cell) domain.RawRow {
	return domain.RawRow(cells)
}

func TestBuildMasterIndexMultiKey(t *testing.T) {
	rows := []domain.RawRow{
		masterRow(
			domain.Cell{Key: "Codigo Interno MAB", Value: "MAB-0042"},
			domain.Cell{Key: "EAN", Value: "0007798001"},
			domain.Cell{Key: "CODIGO", Value: "42"},
			domain.Cell{Key: "REFERENCIA", Value: "DELUXE"},
			domain.Cell{Key: "DESCRIPCION", Value: "TABLERO DELUXE GRIS"},
		),
	}

	index := BuildMasterIndex(rows)

	// One logical row reachable through every code variant it exposes.
	require.Len(t, index, 3)
	for _, key := range []string{"MAB0042", "7798001", "42"} {
		entry, ok := index[key]
		require.True(t, ok, "missing identity %q", key)
		assert.Equal(t, "DELUXE", entry.Category)
		assert.Equal(t, "TABLERO DELUXE GRIS", entry.Description)
	}
}

func TestBuildMasterIndexLastWriteWins(t *testing.T) {
	rows := []domain.RawRow{
		masterRow(
			domain.Cell{Key: "CODIGO", Value: "001"},
			domain.Cell{Key: "GRUPO", Value: "PREMIUM"},
		),
		masterRow(
			domain.Cell{Key: "CODIGO", Value: "1"},
			domain.Cell{Key: "GRUPO", Value: "DELUXE"},
		),
	}

	index := BuildMasterIndex(rows)

	require.Len(t, index, 1)
	assert.Equal(t, "DELUXE", index["1"].Category)
}

func TestBuildMasterIndexSkipsEmptyCodes(t *testing.T) {
	rows := []domain.RawRow{
		masterRow(
			domain.Cell{Key: "CODIGO", Value: "0000"},
			domain.Cell{Key: "EAN", Value: nil},
			domain.Cell{Key: "GRUPO", Value: "PREMIUM"},
		),
	}

	assert.Empty(t, BuildMasterIndex(rows))
}

func TestBuildMasterIndexDuplicateHeaderLastWins(t *testing.T) {
	// Two raw columns normalize to the same canonical key; the later
	// one silently overwrites the earlier.
	rows := []domain.RawRow{
		masterRow(
			domain.Cell{Key: "CODIGO", Value: "77"},
			domain.Cell{Key: " codigo ", Value: "88"},
			domain.Cell{Key: "GRUPO", Value: "DELUXE"},
		),
	}

	index := BuildMasterIndex(rows)

	require.Len(t, index, 1)
	_, ok := index["88"]
	assert.True(t, ok)
}

func TestMergeMasterIndex(t *testing.T) {
	older := domain.MasterIndex{
		"1": {Category: "PREMIUM"},
		"2": {Category: "MAB RH"},
	}
	newer := domain.MasterIndex{
		"1": {Category: "DELUXE"},
		"3": {Category: "OTROS"},
	}

	merged := MergeMasterIndex(older, newer)

	require.Len(t, merged, 3)
	assert.Equal(t, "DELUXE", merged["1"].Category, "last-merged entry must win")
	assert.Equal(t, "MAB RH", merged["2"].Category)

	// A nil cumulative index is allocated on first merge.
	fresh := MergeMasterIndex(nil, newer)
	require.Len(t, fresh, 2)
	assert.Equal(t, "DELUXE", fresh["1"].Category)
}
