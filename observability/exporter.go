package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/benz9527/xfleet/lib/infra"
)

type ExporterType uint8

const (
	NoneExporter ExporterType = iota
	ConsoleExporter
	PrometheusExporter
	_exporterMax
)

func (typ ExporterType) String() string {
	switch typ {
	case ConsoleExporter:
		return "stdout"
	case PrometheusExporter:
		return "prometheus"
	default:
	}
	return "none"
}

func ParseExporterType(name string) (ExporterType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return NoneExporter, nil
	case "stdout", "console":
		return ConsoleExporter, nil
	case "prometheus":
		return PrometheusExporter, nil
	default:
	}
	return _exporterMax, infra.NewErrorStack("unknown metrics exporter " + name)
}

type ShutdownFn func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitMeterProvider installs the global meter provider. The none exporter
// keeps otel's default no-op provider.
func InitMeterProvider(typ ExporterType, interval time.Duration, opts ...stdoutmetric.Option) (ShutdownFn, error) {
	switch typ {
	case NoneExporter:
		return noopShutdown, nil
	case ConsoleExporter:
		return newConsoleMetricsExporter(interval, interval, opts...)
	case PrometheusExporter:
		return newPrometheusMetricsExporter()
	default:
	}
	return nil, infra.NewErrorStack("unknown metrics exporter " + typ.String())
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (ShutdownFn, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "stdout metrics exporter")
	}
	if interval <= 0 {
		interval = 10 * time.Second
		timeout = interval
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter() (ShutdownFn, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, infra.WrapErrorStack(err, "prometheus metrics exporter")
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
