package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetricsRecord(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(ctx) }()

	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	m.RecordCycle(ctx, 2*time.Second)
	m.RecordCycle(ctx, time.Second)
	m.RecordAction(ctx, "assign", "assigned")
	m.RecordAction(ctx, "merge", "merged")
	m.RecordAction(ctx, "merge", "merged")
	m.RecordError(ctx, "reviewing")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Equal(t, int64(2), sumOf(t, rm, "orch.cycles"))
	require.Equal(t, int64(3), sumOf(t, rm, "orch.actions"))
	require.Equal(t, int64(1), sumOf(t, rm, "orch.errors"))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.RecordCycle(context.Background(), time.Second)
	m.RecordAction(context.Background(), "assign", "assigned")
	m.RecordError(context.Background(), "queued")
}

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{}, "orch", "test")
	require.NoError(t, err)
	m, err := NewMetrics(Meter())
	require.NoError(t, err)
	m.RecordCycle(context.Background(), time.Second)
	require.NoError(t, shutdown(context.Background()))
}
