package main

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/benz9527/xfleet/bench"
	"github.com/benz9527/xfleet/config"
	"github.com/benz9527/xfleet/observability"
	"github.com/benz9527/xfleet/xlog"
)

type xfleetBanner struct{}

func (xfleetBanner) JSON() string {
	return `{"app":"xfleet"}`
}

func (xfleetBanner) PlainText() string {
	return `
__  __/ _| | ___  ___| |_
\ \/ / |_| |/ _ \/ _ \ __|
 >  <|  _| |  __/  __/ |_
/_/\_\_| |_|\___|\___|\__|
`
}

func newLogger(cfg *config.Config, lc fx.Lifecycle) xlog.XLogger {
	logger := xlog.NewXLogger(
		xlog.WithXLoggerStdOutWriter(),
		xlog.WithXLoggerLevel(xlog.ParseLogLevel(cfg.Log.Level)),
		xlog.WithXLoggerEncoder(xlog.ParseLogEncoder(cfg.Log.Encoder)),
		xlog.WithXLoggerContextFieldExtract("op", xlog.ContextKeyMapToItself),
		xlog.WithXLoggerContextFieldExtract("trial", xlog.ContextKeyMapToItself),
	)
	logger.Banner(xfleetBanner{})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger
}

func newMeterProvider(cfg *config.Config, lc fx.Lifecycle, logger xlog.XLogger) (metric.MeterProvider, error) {
	typ, err := observability.ParseExporterType(cfg.Metrics.Exporter)
	if err != nil {
		return nil, err
	}
	shutdown, err := observability.InitMeterProvider(typ, cfg.Metrics.Interval)
	if err != nil {
		return nil, err
	}
	mp := otel.GetMeterProvider()
	if err = observability.InitAppStats(mp, "cli"); err != nil {
		logger.ErrorStack(err, "app stats disabled")
	}
	lc.Append(fx.Hook{
		OnStop: shutdown,
	})
	return mp, nil
}

func newRunner(cfg *config.Config, lc fx.Lifecycle, logger xlog.XLogger, mp metric.MeterProvider) (*bench.Runner, error) {
	runner, err := bench.NewRunner(
		cfg.Bench,
		logger,
		bench.WithRunnerOpStats(observability.NewOpStats(mp)),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			runner.Release()
			return nil
		},
	})
	return runner, nil
}

// newApp wires the command dependencies, targets are filled by fx.Populate.
func newApp(cfg *config.Config, targets ...any) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.Provide(
			newLogger,
			newMeterProvider,
			newRunner,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Populate(targets...),
	)
}

// runApp starts the app, runs fn and stops the app whatever fn returns.
func runApp(ctx context.Context, app *fx.App, fn func(ctx context.Context) error) error {
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	runErr := fn(ctx)
	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return err
	}
	return runErr
}
