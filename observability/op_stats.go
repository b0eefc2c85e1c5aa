package observability

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xfleet/lib/fleet"
)

const opStatsMeterName = "xfleet/fleet"

// OpStats records measured fleet operation batches. A nil *OpStats drops
// everything.
type OpStats struct {
	duration metric.Float64Histogram
	ops      metric.Int64Counter
}

func NewOpStats(mp metric.MeterProvider) *OpStats {
	meter := mp.Meter(opStatsMeterName)
	return &OpStats{
		duration: lo.Must[metric.Float64Histogram](meter.Float64Histogram(
			"xfleet.op.duration",
			metric.WithUnit("s"),
			metric.WithDescription(`CPU time of a measured batch of fleet operations.`),
		)),
		ops: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xfleet.op.count",
			metric.WithDescription(`Fleet operations executed in measured batches.`),
		)),
	}
}

func (s *OpStats) Record(ctx context.Context, op string, n int, elapsed time.Duration) {
	if s == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("op", op))
	s.duration.Record(ctx, elapsed.Seconds(), attrs)
	s.ops.Add(ctx, int64(n), attrs)
}

// ObserveFleet exports the fleet size as a gauge until the registration
// is unregistered.
func ObserveFleet(mp metric.MeterProvider, name string, f fleet.Fleet) (metric.Registration, error) {
	meter := mp.Meter(opStatsMeterName)
	gauge, err := meter.Int64ObservableGauge(
		"xfleet.fleet.ships",
		metric.WithDescription(`Ships currently in the fleet.`),
	)
	if err != nil {
		return nil, err
	}
	attrs := metric.WithAttributes(attribute.String("fleet", name))
	return meter.RegisterCallback(func(ctx context.Context, ob metric.Observer) error {
		ob.ObserveInt64(gauge, f.Len(), attrs)
		return nil
	}, gauge)
}
