package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesprep/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func metricFamilies(t *testing.T, tel *Telemetry) []string {
	t.Helper()
	families, err := tel.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	return names
}

func containsPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestInitTelemetry_MetricsOnly(t *testing.T) {
	tel, err := InitTelemetry(config.TelemetryConfig{}, discardLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	assert.Nil(t, tel.TracerProvider)
	assert.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.Metrics)

	ctx := context.Background()
	tel.Metrics.RowsLoaded.Add(ctx, 10)
	RecordStage(ctx, tel.Metrics, "load", 150*time.Millisecond, nil)
	RecordStage(ctx, tel.Metrics, "write", time.Millisecond, errors.New("disk full"))

	names := metricFamilies(t, tel)
	assert.True(t, containsPrefix(names, "salesprep_rows_loaded"), names)
	assert.True(t, containsPrefix(names, "salesprep_stage_duration"), names)
	assert.True(t, containsPrefix(names, "salesprep_stage_errors"), names)
}

func TestInitTelemetry_TracingToFile(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "traces", "trace.json")
	tel, err := InitTelemetry(config.TelemetryConfig{Tracing: true, TraceFile: traceFile}, discardLogger())
	require.NoError(t, err)

	ctx, span := tel.Tracer.Start(context.Background(), "clean")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	AddSpanEvent(ctx, "rows", map[string]int{"dropped": 2})
	RecordError(ctx, errors.New("boom"))
	span.End()

	require.NoError(t, tel.Shutdown(context.Background()))

	content, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"Name":"clean"`)
}

func TestWriteMetrics(t *testing.T) {
	metricsFile := filepath.Join(t.TempDir(), "textfile", "salesprep.prom")
	tel, err := InitTelemetry(config.TelemetryConfig{MetricsFile: metricsFile}, discardLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	ctx := context.Background()
	tel.Metrics.DuplicatesRemoved.Add(ctx, 3)
	stats := tel.Runtime.Collect(ctx, time.Now().Add(-time.Second))
	assert.Greater(t, stats.HeapAlloc, int64(0))
	assert.GreaterOrEqual(t, stats.RunTime, time.Second)

	require.NoError(t, tel.WriteMetrics())

	content, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "salesprep_duplicates_removed")
	assert.Contains(t, string(content), "salesprep_heap_alloc")
}

func TestWriteMetrics_NoFileConfigured(t *testing.T) {
	tel := NoopTelemetry()
	assert.NoError(t, tel.WriteMetrics())
	assert.NoError(t, tel.Shutdown(context.Background()))

	var nilTel *Telemetry
	assert.NoError(t, nilTel.WriteMetrics())
	assert.NoError(t, nilTel.Shutdown(context.Background()))
}

func TestRecordStage_NilMetrics(t *testing.T) {
	RecordStage(context.Background(), nil, "load", time.Second, nil)
	RecordError(context.Background(), errors.New("no span"))
}
