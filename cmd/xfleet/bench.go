package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benz9527/xfleet/bench"
	"github.com/benz9527/xfleet/config"
	"github.com/benz9527/xfleet/lib/infra"
	"github.com/benz9527/xfleet/xlog"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Check that insert, remove and find scale like n*log(n)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			var (
				logger xlog.XLogger
				runner *bench.Runner
			)
			app := newApp(cfg, &logger, &runner)
			return runApp(cmd.Context(), app, func(ctx context.Context) error {
				return runBench(ctx, runner, logger, cmd.OutOrStdout())
			})
		},
	}
	config.RegisterBenchFlags(cmd.Flags())
	return cmd
}

func runBench(ctx context.Context, runner *bench.Runner, logger xlog.XLogger, out io.Writer) error {
	reports, err := runner.RunAll(ctx)
	for i := range reports {
		if werr := reports[i].Write(out); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if !bench.Passed(reports) {
		err = infra.NewErrorStack("fleet operations do not scale as n*log(n)")
		logger.ErrorStackContext(ctx, err, "scaling check failed")
		return err
	}
	logger.InfoContext(ctx, "scaling checks passed", zap.Int("ops", len(reports)))
	return nil
}
