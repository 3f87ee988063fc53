package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RegisterRuntimeMetrics registers Go runtime gauges on the meter.
// Values are collected lazily whenever the metrics endpoint is scraped.
func RegisterRuntimeMetrics(meter metric.Meter) error {
	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return err
	}

	heapAlloc, err := meter.Int64ObservableGauge(
		"system_memory_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	sysMem, err := meter.Int64ObservableGauge(
		"system_memory_sys_bytes",
		metric.WithDescription("Total bytes obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	gcCount, err := meter.Int64ObservableGauge(
		"system_gc_cycles_total",
		metric.WithDescription("Completed GC cycles"),
	)
	if err != nil {
		return err
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)

			o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
			o.ObserveInt64(heapAlloc, int64(mem.HeapAlloc))
			o.ObserveInt64(sysMem, int64(mem.Sys))
			o.ObserveInt64(gcCount, int64(mem.NumGC))
			o.ObserveFloat64(uptime, time.Since(start).Seconds())
			return nil
		},
		goroutines, heapAlloc, sysMem, gcCount, uptime,
	)
	return err
}
