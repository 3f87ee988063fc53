package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"evelis/internal/config"
	"evelis/internal/exporter"
	"evelis/internal/files"
	"evelis/internal/infrastructure"
	"evelis/internal/services"
	"evelis/internal/store"
	"evelis/internal/validation"
)

// The processor runs the full reconciliation pipeline over a directory
// of spreadsheet exports and writes the report files, without starting
// the web server.
func main() {
	inDir := flag.String("in", "", "input directory with spreadsheet exports (defaults to the configured input dir)")
	outDir := flag.String("out", "", "output directory for report files (defaults to the configured reports dir)")
	year := flag.Int("year", 0, "restrict reports to one year, 0 means all years")
	storeName := flag.String("store", "", "restrict the product pivot to one store")
	workbook := flag.Bool("workbook", true, "write the combined Excel workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *inDir == "" {
		*inDir = cfg.Paths.InputDir
	}
	if *outDir == "" {
		*outDir = cfg.Paths.ReportsDir
	}
	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("failed to create required directories", "error", err)
		os.Exit(1)
	}

	if _, err := infrastructure.InitializeLogger(cfg.Logging); err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
	}
	defer infrastructure.CloseLogFile()

	// Each run gets its own trace ID so its log lines correlate
	ctx := infrastructure.EnsureTraceID(context.Background())
	logger := infrastructure.LoggerWithContext(ctx)

	if err := run(ctx, cfg, logger, *inDir, *outDir, *year, *storeName, *workbook); err != nil {
		logger.Error("processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, inDir, outDir string, year int, storeName string, workbook bool) error {
	logger.Info("starting batch processing",
		slog.String("input_dir", inDir),
		slog.String("output_dir", outDir),
		slog.Int("year", year))

	validator := validation.NewFileValidator(logger)
	count, err := validator.ValidateInputDirectory(inDir)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no spreadsheet files found in %s", inDir)
	}
	if err := validator.ValidateOutputDirectory(outDir); err != nil {
		return err
	}

	discovery := files.NewDiscovery("")
	sources, err := discovery.FindSourceFiles(inDir)
	if err != nil {
		return err
	}

	batch := make([]services.BatchFile, 0, len(sources))
	for _, src := range sources {
		sheet, err := files.ReadSheet(src.Path)
		if err != nil {
			infrastructure.WithError(logger, err).Warn("skipping unreadable file",
				slog.String("file", src.Name))
			batch = append(batch, services.BatchFile{Name: src.Name, Err: err})
			continue
		}
		batch = append(batch, services.BatchFile{Name: src.Name, Sheet: sheet})
	}

	st, err := store.New(cfg.Paths.DatabaseFile, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	service := services.NewReconcileService(logger, st, nil, cfg.Processing.Workers)
	if err := service.Restore(ctx); err != nil {
		logger.Warn("snapshot restore failed, starting with empty state",
			slog.String("error", err.Error()))
	}

	result, err := service.ProcessBatch(ctx, batch)
	if err != nil {
		return err
	}
	logger.Info("batch processed",
		slog.String("batch_id", result.BatchID),
		slog.Int("files", len(result.Files)),
		slog.Int("master_entries", result.MasterEntries),
		slog.Int("sales_records", result.SalesRecords),
		slog.Int("inventory_records", result.InventoryRecords))

	return writeReports(service, logger, outDir, year, storeName, workbook)
}

func writeReports(service *services.ReconcileService, logger *slog.Logger, outDir string, year int, storeName string, workbook bool) error {
	reportExporter := exporter.NewReportExporter(outDir)

	if err := reportExporter.ExportPivotCSV("tiendas.csv", service.PivotByStore(year)); err != nil {
		return err
	}
	if err := reportExporter.ExportPivotCSV("productos.csv", service.PivotByProduct(storeName, year)); err != nil {
		return err
	}
	if err := reportExporter.ExportMatrixCSV("categorias.csv", service.CategoryMatrix(year)); err != nil {
		return err
	}
	if err := reportExporter.ExportCoverageCSV("inventario.csv", service.InventoryCoverage(year)); err != nil {
		return err
	}
	if err := reportExporter.ExportSalesCSV("ventas.csv", service.SalesRecords(year)); err != nil {
		return err
	}

	if workbook {
		report := exporter.Report{
			Summary:  service.Summary(year),
			Stores:   service.PivotByStore(year),
			Products: service.PivotByProduct(storeName, year),
			Matrix:   service.CategoryMatrix(year),
			Coverage: service.InventoryCoverage(year),
		}
		if err := reportExporter.ExportWorkbook("reporte.xlsx", report); err != nil {
			return err
		}
	}

	logger.Info("reports written", slog.String("output_dir", outDir))
	return nil
}
