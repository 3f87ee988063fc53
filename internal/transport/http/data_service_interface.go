package http

import (
	"context"

	"evelis/internal/services"
	"evelis/pkg/contracts/domain"
)

// AnalyticsService is the part of the reconciliation service the HTTP
// layer depends on. Kept as an interface so handler tests can stub it.
type AnalyticsService interface {
	ProcessBatch(ctx context.Context, batch []services.BatchFile) (*services.BatchResult, error)
	Reset(ctx context.Context) error
	Summary(year int) domain.SummaryStats
	Years() []int
	PivotByStore(year int) []domain.PivotRow
	PivotByProduct(storeName string, year int) []domain.PivotRow
	CategoryMatrix(year int) domain.CategoryMatrix
	InventoryCoverage(year int) []domain.InventoryCoverage
	SalesRecords(year int) []domain.SalesRecord
	MasterEntries() int
}
