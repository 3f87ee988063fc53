package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evelis/internal/files"
	"evelis/internal/store"
	"evelis/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) *ReconcileService {
	t.Helper()
	return NewReconcileService(testLogger(), nil, nil, 2)
}

func masterSheet() *files.Sheet {
	headers := []string{"CODIGO INTERNO MAB", "EAN", "GRUPO", "DESCRIPCION"}
	return &files.Sheet{
		Name:    "maestro",
		Headers: headers,
		Rows: []domain.RawRow{
			{
				{Key: "CODIGO INTERNO MAB", Value: "001"},
				{Key: "EAN", Value: "7701234567890"},
				{Key: "GRUPO", Value: "DELUXE"},
				{Key: "DESCRIPCION", Value: "TABLERO GRAFFIT 18MM"},
			},
			{
				{Key: "CODIGO INTERNO MAB", Value: "002"},
				{Key: "EAN", Value: "7700987654321"},
				{Key: "GRUPO", Value: "PREMIUM"},
				{Key: "DESCRIPCION", Value: "TABLERO ARENA 15MM"},
			},
		},
	}
}

func salesSheet() *files.Sheet {
	headers := []string{"CODIGO INTERNO MAB", "DESCRIPCIÓN DEL ÍTEM", "CANTIDAD VENDIDA", "FECHA", "TIENDA"}
	return &files.Sheet{
		Name:    "ventas",
		Headers: headers,
		Rows: []domain.RawRow{
			{
				{Key: "CODIGO INTERNO MAB", Value: "1"},
				{Key: "DESCRIPCIÓN DEL ÍTEM", Value: "TABLERO GRAFFIT 18MM"},
				{Key: "CANTIDAD VENDIDA", Value: float64(5)},
				{Key: "FECHA", Value: "15-03-2024"},
				{Key: "TIENDA", Value: "NORTE"},
			},
			{
				{Key: "CODIGO INTERNO MAB", Value: "999"},
				{Key: "DESCRIPCIÓN DEL ÍTEM", Value: "CANTO ROBLE"},
				{Key: "CANTIDAD VENDIDA", Value: float64(3)},
				{Key: "FECHA", Value: "20-04-2024"},
				{Key: "TIENDA", Value: "SUR"},
			},
			{
				// Zero quantity rows drop out of the result
				{Key: "CODIGO INTERNO MAB", Value: "2"},
				{Key: "CANTIDAD VENDIDA", Value: float64(0)},
				{Key: "TIENDA", Value: "SUR"},
			},
		},
	}
}

func inventorySheet() *files.Sheet {
	headers := []string{"EAN", "DESCRIPCIÓN DEL ÍTEM", "SALDO FINAL", "ALMACEN"}
	return &files.Sheet{
		Name:    "inventario",
		Headers: headers,
		Rows: []domain.RawRow{
			{
				{Key: "EAN", Value: "7701234567890"},
				{Key: "DESCRIPCIÓN DEL ÍTEM", Value: "TABLERO GRAFFIT 18MM"},
				{Key: "SALDO FINAL", Value: float64(24)},
				{Key: "ALMACEN", Value: "BODEGA CENTRAL"},
			},
		},
	}
}

func TestProcessBatch_MasterThenSales(t *testing.T) {
	s := newTestService(t)

	result, err := s.ProcessBatch(context.Background(), []BatchFile{
		{Name: "ventas.xlsx", Sheet: salesSheet()},
		{Name: "maestro.xlsx", Sheet: masterSheet()},
	})
	require.NoError(t, err)

	// Master merged before sales even though it arrived second
	assert.Equal(t, 4, result.MasterEntries) // 2 codes + 2 EANs
	assert.Equal(t, 2, result.SalesRecords)  // zero-quantity row dropped

	records := s.SalesRecords(0)
	require.Len(t, records, 2)

	byStore := map[string]domain.SalesRecord{}
	for _, r := range records {
		byStore[r.Store] = r
	}
	// Code "1" cleans to the master's "001" entry
	assert.Equal(t, "DELUXE", byStore["NORTE"].Category)
	// Unmatched row falls back to description inference
	assert.Equal(t, "MAB RH", byStore["SUR"].Category)
}

func TestProcessBatch_Inventory(t *testing.T) {
	s := newTestService(t)

	result, err := s.ProcessBatch(context.Background(), []BatchFile{
		{Name: "inventario.xlsx", Sheet: inventorySheet()},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.InventoryRecords)

	coverage := s.InventoryCoverage(0)
	require.Len(t, coverage, 1)
	assert.True(t, coverage[0].Unbounded)
}

func TestProcessBatch_InventorySnapshotReplaced(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.ProcessBatch(ctx, []BatchFile{{Name: "inventario.xlsx", Sheet: inventorySheet()}})
	require.NoError(t, err)

	second := &files.Sheet{
		Name:    "inventario2",
		Headers: []string{"EAN", "DESCRIPCIÓN DEL ÍTEM", "SALDO FINAL", "ALMACEN"},
		Rows: []domain.RawRow{
			{
				{Key: "EAN", Value: "7701234567890"},
				{Key: "DESCRIPCIÓN DEL ÍTEM", Value: "TABLERO GRAFFIT 18MM"},
				{Key: "SALDO FINAL", Value: float64(18)},
				{Key: "ALMACEN", Value: "BODEGA CENTRAL"},
			},
			{
				{Key: "EAN", Value: "7700987654321"},
				{Key: "DESCRIPCIÓN DEL ÍTEM", Value: "TABLERO ARENA 15MM"},
				{Key: "SALDO FINAL", Value: float64(7)},
				{Key: "ALMACEN", Value: "BODEGA NORTE"},
			},
		},
	}

	// The second snapshot supersedes the first, nothing stacks
	result, err := s.ProcessBatch(ctx, []BatchFile{{Name: "inventario2.xlsx", Sheet: second}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.InventoryRecords)

	coverage := s.InventoryCoverage(0)
	require.Len(t, coverage, 2)

	// A batch without inventory leaves the current snapshot alone
	_, err = s.ProcessBatch(ctx, []BatchFile{{Name: "ventas.xlsx", Sheet: salesSheet()}})
	require.NoError(t, err)
	assert.Len(t, s.InventoryCoverage(0), 2)
}

func TestInventoryCoverage_YearFilter(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	stock := &files.Sheet{
		Name:    "inventario",
		Headers: []string{"EAN", "DESCRIPCIÓN DEL ÍTEM", "SALDO FINAL", "ALMACEN"},
		Rows: []domain.RawRow{
			{
				{Key: "EAN", Value: "1"},
				{Key: "DESCRIPCIÓN DEL ÍTEM", Value: "TABLERO GRAFFIT 18MM"},
				{Key: "SALDO FINAL", Value: float64(24)},
				{Key: "ALMACEN", Value: "BODEGA CENTRAL"},
			},
		},
	}
	ventas := &files.Sheet{
		Name:    "ventas",
		Headers: []string{"CODIGO INTERNO MAB", "CANTIDAD VENDIDA", "FECHA", "TIENDA"},
		Rows: []domain.RawRow{
			{
				{Key: "CODIGO INTERNO MAB", Value: "1"},
				{Key: "CANTIDAD VENDIDA", Value: float64(120)},
				{Key: "FECHA", Value: "10-05-2023"},
				{Key: "TIENDA", Value: "NORTE"},
			},
			{
				{Key: "CODIGO INTERNO MAB", Value: "1"},
				{Key: "CANTIDAD VENDIDA", Value: float64(6)},
				{Key: "FECHA", Value: "15-03-2024"},
				{Key: "TIENDA", Value: "NORTE"},
			},
		},
	}

	_, err := s.ProcessBatch(ctx, []BatchFile{
		{Name: "inventario.xlsx", Sheet: stock},
		{Name: "ventas.xlsx", Sheet: ventas},
	})
	require.NoError(t, err)

	all := s.InventoryCoverage(0)
	require.Len(t, all, 1)
	assert.InDelta(t, 10.5, all[0].AvgMonthlySales, 0.001)

	only2024 := s.InventoryCoverage(2024)
	require.Len(t, only2024, 1)
	assert.InDelta(t, 0.5, only2024[0].AvgMonthlySales, 0.001)

	// A year with no sales leaves the line unbounded
	none := s.InventoryCoverage(2025)
	require.Len(t, none, 1)
	assert.True(t, none[0].Unbounded)
}

func TestProcessBatch_CumulativeAcrossBatches(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.ProcessBatch(ctx, []BatchFile{{Name: "maestro.xlsx", Sheet: masterSheet()}})
	require.NoError(t, err)

	// Sales in a later batch still match the earlier master
	result, err := s.ProcessBatch(ctx, []BatchFile{{Name: "ventas.xlsx", Sheet: salesSheet()}})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SalesRecords)

	records := s.SalesRecords(0)
	categories := map[string]string{}
	for _, r := range records {
		categories[r.Store] = r.Category
	}
	assert.Equal(t, "DELUXE", categories["NORTE"])
}

func TestProcessBatch_UnknownAndUnreadable(t *testing.T) {
	s := newTestService(t)

	unknown := &files.Sheet{
		Name:    "otro",
		Headers: []string{"COLUMNA A", "COLUMNA B"},
		Rows:    []domain.RawRow{{{Key: "COLUMNA A", Value: "x"}}},
	}

	result, err := s.ProcessBatch(context.Background(), []BatchFile{
		{Name: "otro.xlsx", Sheet: unknown},
		{Name: "roto.xlsx", Err: errors.New("bad zip")},
	})
	require.NoError(t, err)

	kinds := map[string]FileResult{}
	for _, fr := range result.Files {
		kinds[fr.Name] = fr
	}
	assert.Equal(t, "unknown", kinds["otro.xlsx"].Kind)
	assert.Equal(t, "unreadable", kinds["roto.xlsx"].Kind)
	assert.Equal(t, "bad zip", kinds["roto.xlsx"].Error)
	assert.Equal(t, 0, result.SalesRecords)
}

func TestReports(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.ProcessBatch(ctx, []BatchFile{
		{Name: "maestro.xlsx", Sheet: masterSheet()},
		{Name: "ventas.xlsx", Sheet: salesSheet()},
		{Name: "inventario.xlsx", Sheet: inventorySheet()},
	})
	require.NoError(t, err)

	summary := s.Summary(0)
	assert.Equal(t, float64(8), summary.TotalUnits)
	assert.Equal(t, 2, summary.ActiveSKUs)
	assert.Equal(t, []int{2024}, summary.Years)

	stores := s.PivotByStore(0)
	require.Len(t, stores, 2)
	assert.Equal(t, "NORTE", stores[0].Name)
	assert.Equal(t, float64(5), stores[0].Total)
	assert.Equal(t, float64(5), stores[0].Months["Marzo"])

	products := s.PivotByProduct("SUR", 0)
	require.Len(t, products, 1)
	assert.Equal(t, "CANTO ROBLE", products[0].Name)

	matrix := s.CategoryMatrix(0)
	require.Len(t, matrix.Rows, 2)
	assert.Contains(t, matrix.Categories, "DELUXE")

	// Year filter keeps 2024 data, drops others
	assert.Len(t, s.SalesRecords(2024), 2)
	assert.Empty(t, s.SalesRecords(2023))

	assert.Equal(t, []int{2024}, s.Years())
}

func TestResetAndPersistence(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	defer st.Close()

	s := NewReconcileService(testLogger(), st, nil, 2)
	ctx := context.Background()

	_, err = s.ProcessBatch(ctx, []BatchFile{
		{Name: "maestro.xlsx", Sheet: masterSheet()},
		{Name: "ventas.xlsx", Sheet: salesSheet()},
	})
	require.NoError(t, err)

	// A fresh service over the same store restores the state
	s2 := NewReconcileService(testLogger(), st, nil, 2)
	require.NoError(t, s2.Restore(ctx))
	assert.Equal(t, 4, s2.MasterEntries())
	assert.Len(t, s2.SalesRecords(0), 2)

	require.NoError(t, s2.Reset(ctx))
	assert.Equal(t, 0, s2.MasterEntries())

	s3 := NewReconcileService(testLogger(), st, nil, 2)
	require.NoError(t, s3.Restore(ctx))
	assert.Equal(t, 0, s3.MasterEntries())
}
