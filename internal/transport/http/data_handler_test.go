package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "evelis/internal/errors"
	"evelis/internal/services"
	"evelis/pkg/contracts/domain"
)

// stubService records calls and returns canned data.
type stubService struct {
	batches    [][]services.BatchFile
	resetCalls int
	lastYear   int
	lastStore  string
	batchErr   error
}

func (s *stubService) ProcessBatch(_ context.Context, batch []services.BatchFile) (*services.BatchResult, error) {
	s.batches = append(s.batches, batch)
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	return &services.BatchResult{BatchID: "batch-1", SalesRecords: 2}, nil
}

func (s *stubService) Reset(context.Context) error {
	s.resetCalls++
	return nil
}

func (s *stubService) Summary(year int) domain.SummaryStats {
	s.lastYear = year
	return domain.SummaryStats{TotalUnits: 8, ActiveSKUs: 2, Years: []int{2024}}
}

func (s *stubService) Years() []int { return []int{2024, 2023} }

func (s *stubService) PivotByStore(year int) []domain.PivotRow {
	s.lastYear = year
	return []domain.PivotRow{{Name: "NORTE", Total: 5, Months: map[string]float64{"Marzo": 5}}}
}

func (s *stubService) PivotByProduct(store string, year int) []domain.PivotRow {
	s.lastStore = store
	s.lastYear = year
	return []domain.PivotRow{{Name: "PUERTA DELUXE", Total: 5, Months: map[string]float64{"Marzo": 5}}}
}

func (s *stubService) CategoryMatrix(year int) domain.CategoryMatrix {
	s.lastYear = year
	return domain.CategoryMatrix{
		Categories: []string{"DELUXE"},
		Rows:       []domain.StoreCategoryRow{{Store: "NORTE", Total: 5, Breakdowns: map[string]float64{"DELUXE": 5}}},
	}
}

func (s *stubService) InventoryCoverage(year int) []domain.InventoryCoverage {
	s.lastYear = year
	return []domain.InventoryCoverage{
		{InventoryRecord: domain.InventoryRecord{SKU: "7801234", Product: "PUERTA DELUXE", Stock: 4}, Critical: true},
	}
}

func (s *stubService) SalesRecords(year int) []domain.SalesRecord {
	s.lastYear = year
	return []domain.SalesRecord{{Store: "NORTE", Product: "PUERTA DELUXE", Quantity: 5, Category: "DELUXE", SKU: "7801234"}}
}

func (s *stubService) MasterEntries() int { return 4 }

func newTestHandler(svc AnalyticsService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewDataHandler(svc, logger, apierrors.NewErrorHandler(logger, false), 1<<20)

	r := chi.NewRouter()
	r.Mount("/api/data", h.Routes())
	return r
}

func decodeJSON(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Bytes(), &out))
	return out
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadFiles(t *testing.T) {
	svc := &stubService{}
	handler := newTestHandler(svc)

	csvContent := "FECHA,LOCAL,PRODUCTO,CODIGO,CANTIDAD\n15-03-2024,NORTE,PUERTA DELUXE,001,5\n"
	body, contentType := multipartBody(t, "files", "ventas.csv", csvContent)

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.batches, 1)
	require.Len(t, svc.batches[0], 1)
	assert.Equal(t, "ventas.csv", svc.batches[0][0].Name)
	require.NotNil(t, svc.batches[0][0].Sheet)
	assert.Equal(t, "FECHA", svc.batches[0][0].Sheet.Headers[0])

	resp := decodeJSON(t, rec.Body)
	assert.Equal(t, "success", resp["status"])
}

func TestUploadFiles_UnreadableFilePassedToBatch(t *testing.T) {
	svc := &stubService{}
	handler := newTestHandler(svc)

	// Not a zip archive, so the xlsx reader fails. The file still goes
	// into the batch so the result can report it per file.
	body, contentType := multipartBody(t, "files", "broken.xlsx", "not a spreadsheet")

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.batches, 1)
	require.Len(t, svc.batches[0], 1)
	assert.Error(t, svc.batches[0][0].Err)
	assert.Nil(t, svc.batches[0][0].Sheet)
}

func TestUploadFiles_MissingFiles(t *testing.T) {
	handler := newTestHandler(&stubService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no files here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
}

func TestUploadFiles_NotMultipart(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/data/upload", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetData(t *testing.T) {
	svc := &stubService{}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/data/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.resetCalls)
}

func TestGetSummary(t *testing.T) {
	svc := &stubService{}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/data/summary?year=2024", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, svc.lastYear)

	resp := decodeJSON(t, rec.Body)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(8), data["total_units"])
}

func TestGetSummary_InvalidYear(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/data/summary?year=1800", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProductPivot_StoreFilter(t *testing.T) {
	svc := &stubService{}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/data/pivot/products?store=NORTE", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NORTE", svc.lastStore)
	assert.Equal(t, 0, svc.lastYear, "missing year means all years")

	resp := decodeJSON(t, rec.Body)
	assert.Equal(t, float64(1), resp["count"])
}

func TestGetYears(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/data/years", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON(t, rec.Body)
	assert.Equal(t, float64(2), resp["count"])
}

func TestGetInventoryCoverage(t *testing.T) {
	svc := &stubService{}
	handler := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/data/inventory/coverage?year=2024", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON(t, rec.Body)
	assert.Equal(t, float64(1), resp["count"])
	// The year filter reaches the coverage computation
	assert.Equal(t, 2024, svc.lastYear)
}

func TestGetInventoryCoverage_InvalidYear(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/data/inventory/coverage?year=1800", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportReport_CSV(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/data/export/tiendas", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tiendas.csv")

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"), "expected UTF-8 BOM")
	assert.Contains(t, body, "Nombre,Total,Enero")
	assert.Contains(t, body, "NORTE,5.00")
}

func TestExportReport_Workbook(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/data/export/completo", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "reporte_completo.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.ElementsMatch(t, []string{"Resumen", "Tiendas", "Productos", "Categorias", "Inventario"}, f.GetSheetList())
}

func TestExportReport_SingleTableXlsx(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/data/export/inventario?format=xlsx", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Datos"}, f.GetSheetList())

	sku, err := f.GetCellValue("Datos", "A2")
	require.NoError(t, err)
	assert.Equal(t, "7801234", sku)
}

func TestExportReport_Unknown(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/data/export/nomina", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportReport_InvalidFormat(t *testing.T) {
	handler := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/api/data/export/tiendas?format=pdf", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hh := NewHealthHandler(&stubService{}, logger)

	r := chi.NewRouter()
	r.Mount("/api/health", hh.Routes())

	req := httptest.NewRequest(http.MethodGet, "/api/health/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeJSON(t, rec.Body)
	assert.Equal(t, "healthy", resp["status"])

	req = httptest.NewRequest(http.MethodGet, "/api/health/ready", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeJSON(t, rec.Body)
	assert.Equal(t, float64(4), resp["master_entries"])
}
