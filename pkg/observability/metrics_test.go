package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/paracord/pkg/observability"
	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

func newTestMeterProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func gaugeValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	m := findMetric(rm, name)
	require.NotNil(t, m, "%s metric not found", name)

	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)

	return gauge.DataPoints[0].Value
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider()

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "/intern", "ok", time.Millisecond)

	rm := collectMetrics(t, reader)

	assert.NotNil(t, findMetric(rm, "paracord.requests.total"))
	assert.NotNil(t, findMetric(rm, "paracord.request.duration.seconds"))
	assert.Nil(t, findMetric(rm, "paracord.errors.total"))
}

func TestREDMetrics_RecordRequestError(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider()

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "/resolve", "error", time.Millisecond)

	assert.NotNil(t, findMetric(collectMetrics(t, reader), "paracord.errors.total"))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider()

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "/intern")

	m := findMetric(collectMetrics(t, reader), "paracord.inflight.requests")
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	done()

	sum, ok = findMetric(collectMetrics(t, reader), "paracord.inflight.requests").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestRegisterInternerMetrics(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider()

	strs := paracord.NewStrings()
	strs.GetOrIntern("a")
	strs.GetOrIntern("b")
	strs.GetOrIntern("a")
	strs.Get("missing")

	reg, err := observability.RegisterInternerMetrics(mp.Meter("test"), "words", strs)
	require.NoError(t, err)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), gaugeValue(t, rm, "paracord.interner.entries"))
	assert.Equal(t, int64(1), gaugeValue(t, rm, "paracord.interner.hits"))
	assert.Equal(t, int64(3), gaugeValue(t, rm, "paracord.interner.misses"))
	assert.Positive(t, gaugeValue(t, rm, "paracord.interner.memory.bytes"))

	assert.NoError(t, reg.Unregister())
}

func TestRegisterInternerMetrics_Slices(t *testing.T) {
	t.Parallel()

	mp, reader := newTestMeterProvider()

	ints := paracord.New[uint32]()
	ints.GetOrIntern([]uint32{1, 2})

	_, err := observability.RegisterInternerMetrics(mp.Meter("test"), "ints", ints)
	require.NoError(t, err)

	assert.Equal(t, int64(1), gaugeValue(t, collectMetrics(t, reader), "paracord.interner.entries"))
}
