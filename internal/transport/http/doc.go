// Package http contains the HTTP transport layer: chi handlers that
// expose the reconciliation pipeline and its reports as a JSON API.
//
// Routes are grouped per handler:
//
//	DataHandler    /api/data      upload, reports, exports, reset
//	HealthHandler  /api/health    liveness and readiness probes
//
// All error responses follow RFC 7807 problem details, produced by the
// shared errors.ErrorHandler. Handlers depend on the AnalyticsService
// interface rather than the concrete service so tests can stub it.
//
// Report endpoints accept an optional year query parameter; zero or
// absent means all years. Export endpoints stream CSV with a UTF-8 BOM
// or an Excel workbook depending on the format parameter.
package http
