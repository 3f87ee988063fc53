package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"evelis/internal/dataprocessing"
	"evelis/internal/files"
	"evelis/internal/infrastructure"
	"evelis/internal/store"
	"evelis/pkg/contracts/domain"
)

// BatchFile is one parsed source file handed to the batch processor.
// Err carries a parse failure; the file is then reported but skipped.
type BatchFile struct {
	Name  string
	Sheet *files.Sheet
	Err   error
}

// FileResult describes what one file contributed to a batch.
type FileResult struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Rows    int    `json:"rows"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// BatchResult summarizes one processed batch.
type BatchResult struct {
	BatchID          string       `json:"batch_id"`
	Files            []FileResult `json:"files"`
	MasterEntries    int          `json:"master_entries"`
	SalesRecords     int          `json:"sales_records"`
	InventoryRecords int          `json:"inventory_records"`
	Duration         string       `json:"duration"`
}

// ReconcileService holds the cumulative analytics state: the master
// index and every reconciled sales and inventory record so far. Master
// sheets in a batch are merged before the batch's sales and inventory
// files are reconciled, so a master uploaded together with its sales
// already classifies them.
type ReconcileService struct {
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	store   *store.Store
	workers int

	mu        sync.RWMutex
	index     domain.MasterIndex
	sales     []domain.SalesRecord
	inventory []domain.InventoryRecord
}

// NewReconcileService creates a reconcile service. The store may be nil
// for purely in-memory operation; workers bounds batch concurrency.
func NewReconcileService(logger *slog.Logger, st *store.Store, metrics *infrastructure.BusinessMetrics, workers int) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &ReconcileService{
		logger:  infrastructure.WithComponent(logger, "reconcile_service"),
		metrics: metrics,
		store:   st,
		workers: workers,
		index:   domain.MasterIndex{},
	}
}

// Restore loads the persisted snapshot into memory. Call once at startup.
func (s *ReconcileService) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	index, sales, inventory, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	s.mu.Lock()
	s.index = index
	s.sales = sales
	s.inventory = inventory
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "state restored",
		slog.Int("master_entries", len(index)),
		slog.Int("sales_records", len(sales)),
		slog.Int("inventory_records", len(inventory)),
	)
	return nil
}

// ProcessBatch ingests a batch of parsed files. Master sheets are
// merged into the index first; the remaining files are reconciled
// concurrently against the updated index. Sales accumulate across
// batches, while an inventory snapshot replaces the previous one.
func (s *ReconcileService) ProcessBatch(ctx context.Context, batch []BatchFile) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{BatchID: uuid.New().String()}

	// Phase 1: merge every master sheet into the index so this batch's
	// sales see it.
	var rest []BatchFile
	for _, f := range batch {
		if f.Err != nil || f.Sheet == nil {
			fr := FileResult{Name: f.Name, Kind: "unreadable"}
			if f.Err != nil {
				fr.Error = f.Err.Error()
			}
			result.Files = append(result.Files, fr)
			continue
		}
		if files.IsMaster(f.Sheet.Headers) {
			incoming := dataprocessing.BuildMasterIndex(f.Sheet.Rows)
			s.mu.Lock()
			s.index = dataprocessing.MergeMasterIndex(s.index, incoming)
			s.mu.Unlock()

			result.Files = append(result.Files, FileResult{
				Name:    f.Name,
				Kind:    "master",
				Rows:    len(f.Sheet.Rows),
				Records: len(incoming),
			})
			continue
		}
		rest = append(rest, f)
	}

	// Phase 2: reconcile sales and inventory files against a stable
	// view of the index.
	s.mu.RLock()
	indexView := s.index.Clone()
	s.mu.RUnlock()

	var resMu sync.Mutex
	var newSales []domain.SalesRecord
	var newInventory []domain.InventoryRecord
	var sawInventory bool

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, f := range rest {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			fr := FileResult{Name: f.Name, Rows: len(f.Sheet.Rows)}
			switch files.DetectKind(f.Sheet.Headers) {
			case files.KindSales:
				records := dataprocessing.ReconcileSales(f.Sheet.Rows, indexView)
				fr.Kind = "sales"
				fr.Records = len(records)

				s.recordReconciliation(gctx, f.Name, records, indexView, len(f.Sheet.Rows))

				resMu.Lock()
				newSales = append(newSales, records...)
				resMu.Unlock()
			case files.KindInventory:
				records := dataprocessing.NormalizeInventory(f.Sheet.Rows)
				fr.Kind = "inventory"
				fr.Records = len(records)

				resMu.Lock()
				newInventory = append(newInventory, records...)
				sawInventory = true
				resMu.Unlock()
			default:
				fr.Kind = "unknown"
				s.logger.WarnContext(gctx, "skipping unrecognized file",
					slog.String("file", f.Name))
			}

			resMu.Lock()
			result.Files = append(result.Files, fr)
			resMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		infrastructure.RecordBatchMetrics(ctx, s.metrics, result.BatchID, len(batch), time.Since(start), err)
		return nil, err
	}

	s.mu.Lock()
	s.sales = append(s.sales, newSales...)
	if sawInventory {
		// Inventory files are point-in-time stock snapshots. A batch
		// that carries one supersedes the previous stock picture
		// instead of stacking on top of it.
		s.inventory = newInventory
	}
	result.MasterEntries = len(s.index)
	result.SalesRecords = len(s.sales)
	result.InventoryRecords = len(s.inventory)
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		infrastructure.RecordBatchMetrics(ctx, s.metrics, result.BatchID, len(batch), time.Since(start), err)
		return nil, err
	}

	result.Duration = time.Since(start).String()
	infrastructure.RecordBatchMetrics(ctx, s.metrics, result.BatchID, len(batch), time.Since(start), nil)

	s.logger.InfoContext(ctx, "batch processed",
		slog.String("batch_id", result.BatchID),
		slog.Int("files", len(batch)),
		slog.Int("master_entries", result.MasterEntries),
		slog.Int("sales_records", result.SalesRecords),
		slog.Int("inventory_records", result.InventoryRecords),
		slog.String("duration", result.Duration),
	)
	return result, nil
}

func (s *ReconcileService) recordReconciliation(ctx context.Context, source string, records []domain.SalesRecord, index domain.MasterIndex, inputRows int) {
	if s.metrics == nil {
		return
	}
	var matched, unmatched int64
	for _, r := range records {
		if _, ok := index[dataprocessing.CleanCode(r.SKU)]; ok {
			matched++
		} else {
			unmatched++
		}
	}
	dropped := int64(inputRows - len(records))
	if dropped < 0 {
		dropped = 0
	}
	infrastructure.RecordReconciliationMetrics(ctx, s.metrics, source, matched, unmatched, dropped)
}

func (s *ReconcileService) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	s.mu.RLock()
	index := s.index.Clone()
	sales := make([]domain.SalesRecord, len(s.sales))
	copy(sales, s.sales)
	inventory := make([]domain.InventoryRecord, len(s.inventory))
	copy(inventory, s.inventory)
	s.mu.RUnlock()

	if err := s.store.SaveSnapshot(ctx, index, sales, inventory); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Reset clears the cumulative state, in memory and on disk.
func (s *ReconcileService) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.index = domain.MasterIndex{}
	s.sales = nil
	s.inventory = nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "state cleared")
	return nil
}

// Summary returns the overview stats, optionally filtered to one year.
func (s *ReconcileService) Summary(year int) domain.SummaryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := dataprocessing.FilterByYear(s.sales, year)
	stats := dataprocessing.Summarize(records, s.inventory)
	// Year choices always come from the full record set
	stats.Years = dataprocessing.Years(s.sales)
	return stats
}

// Years lists the distinct sales years, newest first.
func (s *ReconcileService) Years() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dataprocessing.Years(s.sales)
}

// PivotByStore aggregates sales per store and month.
func (s *ReconcileService) PivotByStore(year int) []domain.PivotRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := dataprocessing.FilterByYear(s.sales, year)
	return dataprocessing.BuildPivot(records, func(r domain.SalesRecord) string { return r.Store })
}

// PivotByProduct aggregates sales per product and month, optionally
// restricted to one store.
func (s *ReconcileService) PivotByProduct(storeName string, year int) []domain.PivotRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := dataprocessing.FilterByYear(s.sales, year)
	if storeName != "" {
		filtered := make([]domain.SalesRecord, 0, len(records))
		for _, r := range records {
			if r.Store == storeName {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return dataprocessing.BuildPivot(records, func(r domain.SalesRecord) string { return r.Product })
}

// CategoryMatrix builds the store × consolidated-category summary.
func (s *ReconcileService) CategoryMatrix(year int) domain.CategoryMatrix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dataprocessing.BuildCategoryMatrix(dataprocessing.FilterByYear(s.sales, year))
}

// InventoryCoverage annotates inventory lines with their sales run
// rate. The run rate comes from the same year window the other reports
// use, so coverage and pivots always describe the same sales.
func (s *ReconcileService) InventoryCoverage(year int) []domain.InventoryCoverage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dataprocessing.AnalyzeCoverage(s.inventory, dataprocessing.FilterByYear(s.sales, year))
}

// SalesRecords returns a copy of the reconciled sales records.
func (s *ReconcileService) SalesRecords(year int) []domain.SalesRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := dataprocessing.FilterByYear(s.sales, year)
	out := make([]domain.SalesRecord, len(records))
	copy(out, records)
	return out
}

// MasterEntries returns the current size of the master index.
func (s *ReconcileService) MasterEntries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}
