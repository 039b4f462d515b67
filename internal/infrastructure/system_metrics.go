package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics captures process resource use at the end of a run, so the
// metrics textfile shows how heavy the dataset was to hold in memory.
type RuntimeMetrics struct {
	heapAlloc  metric.Int64Gauge
	totalAlloc metric.Int64Gauge
	gcCount    metric.Int64Gauge
	runSeconds metric.Float64Gauge
}

// RuntimeStats is a snapshot taken by Collect
type RuntimeStats struct {
	HeapAlloc  int64
	TotalAlloc int64
	GCCount    uint32
	RunTime    time.Duration
}

// NewRuntimeMetrics registers the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	heapAlloc, err := meter.Int64Gauge(
		"salesprep_heap_alloc",
		metric.WithDescription("Heap bytes in use when the run finished"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"salesprep_total_alloc",
		metric.WithDescription("Cumulative heap bytes allocated by the process"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"salesprep_gc_cycles",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	runSeconds, err := meter.Float64Gauge(
		"salesprep_run_duration",
		metric.WithDescription("Wall-clock duration of the run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		heapAlloc:  heapAlloc,
		totalAlloc: totalAlloc,
		gcCount:    gcCount,
		runSeconds: runSeconds,
	}, nil
}

// Collect reads runtime.MemStats and records the gauges
func (rm *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time) *RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &RuntimeStats{
		HeapAlloc:  int64(memStats.HeapAlloc),
		TotalAlloc: int64(memStats.TotalAlloc),
		GCCount:    memStats.NumGC,
		RunTime:    time.Since(startTime),
	}
	if rm == nil {
		return stats
	}

	rm.heapAlloc.Record(ctx, stats.HeapAlloc)
	rm.totalAlloc.Record(ctx, stats.TotalAlloc)
	rm.gcCount.Record(ctx, int64(stats.GCCount))
	rm.runSeconds.Record(ctx, stats.RunTime.Seconds())
	return stats
}
