package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/xuri/excelize/v2"

	apierrors "evelis/internal/errors"
	"evelis/internal/exporter"
	"evelis/internal/files"
	"evelis/internal/infrastructure"
	"evelis/internal/middleware"
	"evelis/internal/services"
)

const (
	uploadFieldName   = "files"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType    = "text/csv; charset=utf-8"
	multipartMemLimit = 8 << 20
)

// DataHandler serves the analytics API with RFC 7807 error responses.
type DataHandler struct {
	service        AnalyticsService
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	queryValidator *middleware.QueryParamValidator
	maxUploadBytes int64
}

// NewDataHandler creates the analytics handler
func NewDataHandler(service AnalyticsService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *DataHandler {
	return &DataHandler{
		service:        service,
		logger:         infrastructure.WithComponent(logger, "data_handler"),
		errorHandler:   errorHandler,
		queryValidator: middleware.NewQueryParamValidator(logger, errorHandler),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/upload", h.UploadFiles)
	r.Delete("/", h.ResetData)

	r.Get("/summary", h.GetSummary)
	r.Get("/years", h.GetYears)
	r.Get("/pivot/stores", h.GetStorePivot)
	r.Get("/pivot/products", h.GetProductPivot)
	r.Get("/matrix", h.GetCategoryMatrix)
	r.Get("/inventory/coverage", h.GetInventoryCoverage)
	r.Get("/sales", h.GetSales)

	r.Get("/export/{report}", h.ExportReport)

	return r
}

// UploadFiles handles POST /api/data/upload. It accepts one or more
// spreadsheet files in a multipart form and feeds them through the
// reconciliation pipeline as a single batch.
func (h *DataHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge(h.maxUploadBytes))
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFieldName, "Request body must be multipart/form-data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	fileHeaders := r.MultipartForm.File[uploadFieldName]
	if len(fileHeaders) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadFieldName, "At least one file is required"))
		return
	}

	h.logger.InfoContext(r.Context(), "processing upload",
		slog.String("request_id", reqID),
		slog.Int("files", len(fileHeaders)),
	)

	batch := make([]services.BatchFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		batch = append(batch, readUploadedFile(fh))
	}

	result, err := h.service.ProcessBatch(r.Context(), batch)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "batch processing failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

func readUploadedFile(fh *multipart.FileHeader) services.BatchFile {
	name := fh.Filename

	file, err := fh.Open()
	if err != nil {
		return services.BatchFile{Name: name, Err: err}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.BatchFile{Name: name, Err: err}
	}

	sheet, err := files.ReadSheetFrom(bytes.NewReader(data), name)
	if err != nil {
		return services.BatchFile{Name: name, Err: err}
	}
	return services.BatchFile{Name: name, Sheet: sheet}
}

// ResetData handles DELETE /api/data. It clears all reconciled state,
// both in memory and in the snapshot store.
func (h *DataHandler) ResetData(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	h.logger.InfoContext(r.Context(), "resetting analytics data",
		slog.String("request_id", reqID),
	)

	if err := h.service.Reset(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "reset failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
	})
}

// GetSummary handles GET /api/data/summary
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Summary(year),
	})
}

// GetYears handles GET /api/data/years
func (h *DataHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	years := h.service.Years()
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   years,
		"count":  len(years),
	})
}

// GetStorePivot handles GET /api/data/pivot/stores
func (h *DataHandler) GetStorePivot(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}

	rows := h.service.PivotByStore(year)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// GetProductPivot handles GET /api/data/pivot/products. An optional
// store parameter restricts the pivot to one store's sales.
func (h *DataHandler) GetProductPivot(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	store := r.URL.Query().Get("store")

	rows := h.service.PivotByProduct(store, year)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
		"store":  store,
	})
}

// GetCategoryMatrix handles GET /api/data/matrix
func (h *DataHandler) GetCategoryMatrix(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.CategoryMatrix(year),
	})
}

// GetInventoryCoverage handles GET /api/data/inventory/coverage. The
// optional year filter scopes the sales run rate the coverage is
// computed against.
func (h *DataHandler) GetInventoryCoverage(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}

	coverage := h.service.InventoryCoverage(year)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   coverage,
		"count":  len(coverage),
	})
}

// GetSales handles GET /api/data/sales
func (h *DataHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}

	records := h.service.SalesRecords(year)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// ExportReport handles GET /api/data/export/{report}. Known reports are
// tiendas, productos, categorias, inventario, ventas and completo. All
// support ?format=csv|xlsx except completo, which is always a
// multi-sheet workbook.
func (h *DataHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	report := chi.URLParam(r, "report")

	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	format, ok := h.queryValidator.ValidateEnum(w, r, "format", []string{"csv", "xlsx"}, "csv")
	if !ok {
		return
	}
	store := r.URL.Query().Get("store")

	h.logger.InfoContext(r.Context(), "exporting report",
		slog.String("request_id", reqID),
		slog.String("report", report),
		slog.String("format", format),
		slog.Int("year", year),
	)

	if report == "completo" {
		full := exporter.Report{
			Summary:  h.service.Summary(year),
			Stores:   h.service.PivotByStore(year),
			Products: h.service.PivotByProduct(store, year),
			Matrix:   h.service.CategoryMatrix(year),
			Coverage: h.service.InventoryCoverage(year),
		}
		f, err := exporter.BuildWorkbook(full)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		defer f.Close()
		h.serveWorkbook(w, r, "reporte_completo.xlsx", f)
		return
	}

	var headers []string
	var records [][]string
	switch report {
	case "tiendas":
		headers, records = exporter.PivotTable(h.service.PivotByStore(year))
	case "productos":
		headers, records = exporter.PivotTable(h.service.PivotByProduct(store, year))
	case "categorias":
		headers, records = exporter.MatrixTable(h.service.CategoryMatrix(year))
	case "inventario":
		headers, records = exporter.CoverageTable(h.service.InventoryCoverage(year))
	case "ventas":
		headers, records = exporter.SalesTable(h.service.SalesRecords(year))
	default:
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError(fmt.Sprintf("report '%s'", report)))
		return
	}

	if format == "xlsx" {
		f, err := exporter.TableWorkbook("Datos", headers, records)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		defer f.Close()
		h.serveWorkbook(w, r, report+".xlsx", f)
		return
	}

	w.Header().Set("Content-Type", csvContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report+".csv"))
	if err := exporter.WriteTableCSV(w, headers, records); err != nil {
		// Headers are already out, the best we can do is log
		h.logger.ErrorContext(r.Context(), "csv export failed mid-stream",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("report", report),
		)
	}
}

type workbookWriter interface {
	Write(w io.Writer, opts ...excelize.Options) error
}

func (h *DataHandler) serveWorkbook(w http.ResponseWriter, r *http.Request, filename string, f workbookWriter) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		h.logger.ErrorContext(r.Context(), "workbook export failed mid-stream",
			slog.String("error", err.Error()),
			slog.String("filename", filename),
		)
	}
}

// yearParam reads the optional year filter, zero meaning all years.
func (h *DataHandler) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	return h.queryValidator.ValidateInt(w, r, "year", 1900, 2100, 0)
}
