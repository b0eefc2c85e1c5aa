package observability

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/metric"

	"github.com/benz9527/xfleet/lib/infra"
)

var (
	once  sync.Once
	stats *appStats
)

type appStats struct {
	goroutines metric.Int64ObservableUpDownCounter
	processes  metric.Int64ObservableUpDownCounter
	rss        metric.Int64ObservableGauge
}

func appMeterName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString("xfleet/app")
	builder.WriteString("/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// InitAppStats registers the process gauges and the go runtime metrics on
// mp, only the first call per process has effect.
func InitAppStats(mp metric.MeterProvider, name string) error {
	var err error
	once.Do(func() {
		meter := mp.Meter(
			appMeterName(name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		self, procErr := process.NewProcess(int32(os.Getpid()))
		stats = &appStats{
			goroutines: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.goroutines",
				metric.WithDescription(`The application goroutines' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.NumGoroutine()))
					return nil
				}),
			)),
			processes: lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
				"app.core.processes",
				metric.WithDescription(`The application processes' info.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					ob.Observe(int64(runtime.GOMAXPROCS(0)))
					return nil
				}),
			)),
			rss: lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
				"app.core.rss",
				metric.WithUnit("By"),
				metric.WithDescription(`The application resident set size.`),
				metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
					if procErr != nil {
						return procErr
					}
					mem, err := self.MemoryInfoWithContext(ctx)
					if err != nil {
						return err
					}
					ob.Observe(int64(mem.RSS))
					return nil
				}),
			)),
		}
		err = infra.WrapErrorStack(otelruntime.Start(otelruntime.WithMeterProvider(mp)), "runtime metrics")
	})
	return err
}
