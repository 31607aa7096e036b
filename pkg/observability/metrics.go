package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

const (
	metricRequestsTotal    = "paracord.requests.total"
	metricRequestDuration  = "paracord.request.duration.seconds"
	metricErrorsTotal      = "paracord.errors.total"
	metricInflightRequests = "paracord.inflight.requests"

	metricInternerEntries = "paracord.interner.entries"
	metricInternerMemory  = "paracord.interner.memory.bytes"
	metricInternerHits    = "paracord.interner.hits"
	metricInternerMisses  = "paracord.interner.misses"

	attrOp       = "op"
	attrStatus   = "status"
	attrInterner = "interner"

	statusOK    = "ok"
	statusError = "error"
)

// durationBucketBoundaries covers 50µs to 5s; interning requests are short.
var durationBucketBoundaries = []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// REDMetrics holds the Rate, Errors and Duration instruments of the server.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates the RED instruments on mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of failed requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records one completed request.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	)

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == statusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight counter and returns its decrement.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() {
		rm.inflightRequests.Add(ctx, -1, attrs)
	}
}

// StatsProvider is anything that reports interner statistics, such as
// *paracord.Strings and *paracord.Slices.
type StatsProvider interface {
	Stats() paracord.Stats
}

// RegisterInternerMetrics publishes the entries, memory, hit and miss counts
// of provider as observable gauges labelled interner=name. Stats is read
// once per collection. Unregister the returned registration to stop.
func RegisterInternerMetrics(mt metric.Meter, name string, provider StatsProvider) (metric.Registration, error) {
	entries, err := mt.Int64ObservableGauge(metricInternerEntries,
		metric.WithDescription("Number of interned values"),
		metric.WithUnit("{value}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInternerEntries, err)
	}

	memory, err := mt.Int64ObservableGauge(metricInternerMemory,
		metric.WithDescription("Estimated interner footprint"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInternerMemory, err)
	}

	hits, err := mt.Int64ObservableGauge(metricInternerHits,
		metric.WithDescription("Lookups that found an interned value"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInternerHits, err)
	}

	misses, err := mt.Int64ObservableGauge(metricInternerMisses,
		metric.WithDescription("Lookups that did not find an interned value"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInternerMisses, err)
	}

	attrs := metric.WithAttributes(attribute.String(attrInterner, name))

	reg, err := mt.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := provider.Stats()

		o.ObserveInt64(entries, int64(stats.Entries), attrs)
		o.ObserveInt64(memory, int64(stats.MemoryBytes()), attrs)
		o.ObserveInt64(hits, stats.Hits, attrs)
		o.ObserveInt64(misses, stats.Misses, attrs)

		return nil
	}, entries, memory, hits, misses)
	if err != nil {
		return nil, fmt.Errorf("register interner callback: %w", err)
	}

	return reg, nil
}
