package main

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/benz9527/xfleet/config"
	"github.com/benz9527/xfleet/lib/fixtures"
	"github.com/benz9527/xfleet/lib/fleet"
	"github.com/benz9527/xfleet/lib/infra"
	"github.com/benz9527/xfleet/observability"
	"github.com/benz9527/xfleet/xlog"
)

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a random fleet, list it, then purge the lost ships",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			var (
				logger xlog.XLogger
				mp     metric.MeterProvider
			)
			app := newApp(cfg, &logger, &mp)
			return runApp(cmd.Context(), app, func(ctx context.Context) error {
				return runDemo(ctx, cfg.Fixture, logger, mp, cmd.OutOrStdout())
			})
		},
	}
	config.RegisterFixtureFlags(cmd.Flags())
	return cmd
}

func printFleet(out io.Writer, title string, f fleet.Fleet) error {
	if _, err := fmt.Fprintf(out, "== %s (%d ships)\n", title, f.Len()); err != nil {
		return err
	}
	if err := f.List(out); err != nil {
		return err
	}
	if err := f.Dump(out); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out)
	return err
}

func runDemo(ctx context.Context, cfg config.FixtureConfig, logger xlog.XLogger, mp metric.MeterProvider, out io.Writer) error {
	prng := fixtures.NewRand(cfg.Seed)
	f := fixtures.Build(fixtures.RandomShips(prng, cfg.Size, cfg.LostRatio))
	reg, err := observability.ObserveFleet(mp, "demo", f)
	if err != nil {
		return infra.WrapErrorStack(err, "observe demo fleet")
	}
	defer func() {
		_ = reg.Unregister()
	}()

	logger.InfoContext(ctx, "fleet built",
		zap.Int64("ships", f.Len()),
		zap.Any("types", lo.MapKeys(fixtures.CountByType(f), func(_ int, typ fleet.ShipType) string {
			return typ.String()
		})),
	)
	if err = printFleet(out, "fleet", f); err != nil {
		return err
	}

	// One more casualty, the first ship still alive.
	for ship := range f.All() {
		if ship.State == fleet.Alive {
			f.SetState(ship.ID, fleet.Lost)
			logger.InfoContext(ctx, "ship lost", zap.Int("id", ship.ID), zap.Stringer("type", ship.Type))
			break
		}
	}

	lost := fixtures.LostIDs(f)
	removed := f.RemoveLost()
	logger.InfoContext(ctx, "lost ships removed",
		zap.Ints("ids", lost),
		zap.Int("removed", removed),
		zap.Int64("remaining", f.Len()),
	)
	if err = printFleet(out, "after removing lost ships", f); err != nil {
		return err
	}

	if err = fleet.Validate(f); err != nil {
		err = infra.WrapErrorStack(err, "demo fleet unbalanced")
		logger.ErrorStackContext(ctx, err, "fleet validation failed")
		return err
	}
	return nil
}
