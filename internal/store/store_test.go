package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evelis/pkg/contracts/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func timePtr(t time.Time) *time.Time { return &t }

func TestSaveAndLoadSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	index := domain.MasterIndex{
		"123": {Category: "DELUXE", Reference: "REF-1", Description: "TABLERO GRAFFIT"},
		"456": {Category: "PREMIUM", Reference: "REF-2", Description: "TABLERO ARENA"},
	}
	sales := []domain.SalesRecord{
		{
			Date:     timePtr(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
			Store:    "TIENDA NORTE",
			Product:  "TABLERO GRAFFIT",
			Quantity: 5,
			Category: "DELUXE",
			SKU:      "123",
		},
		{
			Store:    "TIENDA SUR",
			Product:  "CANTO ROBLE",
			Quantity: -2,
			Category: "MAB RH",
			SKU:      "456",
		},
	}
	inventory := []domain.InventoryRecord{
		{SKU: "123", Product: "TABLERO GRAFFIT", Stock: 40, Store: "CENTRAL"},
	}

	require.NoError(t, s.SaveSnapshot(ctx, index, sales, inventory))

	gotIndex, gotSales, gotInventory, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, index, gotIndex)
	require.Len(t, gotSales, 2)
	assert.Equal(t, sales[0], gotSales[0])
	assert.Equal(t, sales[1], gotSales[1])
	assert.Nil(t, gotSales[1].Date)
	assert.Equal(t, inventory, gotInventory)
}

func TestSaveSnapshotReplacesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := domain.MasterIndex{"111": {Category: "PREMIUM"}}
	require.NoError(t, s.SaveSnapshot(ctx, first, nil, nil))

	second := domain.MasterIndex{"222": {Category: "DELUXE"}}
	require.NoError(t, s.SaveSnapshot(ctx, second, nil, nil))

	gotIndex, gotSales, gotInventory, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, second, gotIndex)
	assert.Empty(t, gotSales)
	assert.Empty(t, gotInventory)
}

func TestLoadSnapshotEmpty(t *testing.T) {
	s := newTestStore(t)

	index, sales, inventory, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)

	assert.Empty(t, index)
	assert.Nil(t, sales)
	assert.Nil(t, inventory)
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, domain.MasterIndex{"1": {Category: "PREMIUM"}}, []domain.SalesRecord{{Quantity: 1}}, nil))
	require.NoError(t, s.Clear(ctx))

	index, sales, inventory, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, index)
	assert.Nil(t, sales)
	assert.Nil(t, inventory)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "persist.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(path, logger)
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(context.Background(), domain.MasterIndex{"9": {Category: "MAB RH"}}, nil, nil))
	require.NoError(t, s.Close())

	s2, err := New(path, logger)
	require.NoError(t, err)
	defer s2.Close()

	index, _, _, err := s2.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.MasterIndex{"9": {Category: "MAB RH"}}, index)
}
