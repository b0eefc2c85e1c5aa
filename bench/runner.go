package bench

import (
	"context"
	"math"
	"os"
	"sync"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xfleet/config"
	"github.com/benz9527/xfleet/lib/hrtime"
	"github.com/benz9527/xfleet/lib/infra"
	"github.com/benz9527/xfleet/observability"
	"github.com/benz9527/xfleet/xlog"
)

type Runner struct {
	cfg    config.BenchConfig
	logger xlog.XLogger
	stats  *observability.OpStats
	clock  hrtime.Clock
	pool   *antsv2.Pool
	proc   *process.Process
}

type RunnerOption func(*Runner) error

func WithRunnerClock(clock hrtime.Clock) RunnerOption {
	return func(r *Runner) error {
		if clock == nil {
			return infra.NewErrorStack("[bench] nil clock")
		}
		r.clock = clock
		return nil
	}
}

func WithRunnerOpStats(stats *observability.OpStats) RunnerOption {
	return func(r *Runner) error {
		r.stats = stats
		return nil
	}
}

// NewRunner validates nothing beyond what it needs, callers are expected to
// pass a validated config.
func NewRunner(cfg config.BenchConfig, logger xlog.XLogger, opts ...RunnerOption) (*Runner, error) {
	if logger == nil {
		return nil, infra.NewErrorStack("[bench] nil logger")
	}
	if cfg.InputSize <= 0 || cfg.Trials < 2 || cfg.Repeats < 1 || cfg.Scaling < 2 {
		return nil, infra.NewErrorStack("[bench] invalid trial layout")
	}
	r := &Runner{
		cfg:    cfg,
		logger: logger,
		clock:  hrtime.ClockOf(hrtime.ParseClockType(cfg.Clock)),
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(r); err != nil {
			return nil, err
		}
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	pool, err := antsv2.NewPool(
		workers,
		antsv2.WithPreAlloc(true),
		antsv2.WithLogger(xlog.NewAntsXLogger(logger)),
	)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[bench] workload pool")
	}
	r.pool = pool

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		r.proc = proc
	} else {
		logger.Warn("process stats unavailable", zap.Error(err))
	}
	return r, nil
}

func (r *Runner) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}

func (r *Runner) rss(ctx context.Context) uint64 {
	if r.proc == nil {
		return 0
	}
	mem, err := r.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0
	}
	return mem.RSS
}

// prepare builds the workloads of a trial on the pool. A workload whose
// preparation panicked is reported as an error.
func (r *Runner) prepare(ctx context.Context, op Op, trial, size int) ([]*workload, error) {
	workloads := make([]*workload, r.cfg.Repeats)
	wg := sync.WaitGroup{}
	var submitErr error
	for i := 0; i < r.cfg.Repeats; i++ {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		i := i
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			workloads[i] = newWorkload(op, size, workloadSeed(r.cfg.Seed, trial, i))
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()
	if submitErr != nil {
		return nil, infra.WrapErrorStack(submitErr, "[bench] prepare "+op.String())
	}
	for _, w := range workloads {
		if w == nil {
			return nil, infra.NewErrorStack("[bench] prepare " + op.String() + " workload failed")
		}
	}
	return workloads, nil
}

// Run measures op over every trial. Measurements run one at a time on the
// calling goroutine.
func (r *Runner) Run(ctx context.Context, op Op) (Report, error) {
	if op >= _opMax {
		return Report{}, infra.NewErrorStack("[bench] unknown fleet op")
	}
	report := Report{
		Op:          op,
		Clock:       r.clock.Name(),
		Variability: r.cfg.Variability,
		Trials:      make([]Trial, 0, r.cfg.Trials),
	}
	ctx = context.WithValue(ctx, xlog.ContextKey("op"), op.String())
	for i := 0; i < r.cfg.Trials; i++ {
		size := trialSize(r.cfg.InputSize, r.cfg.Scaling, i)
		trialCtx := context.WithValue(ctx, xlog.ContextKey("trial"), i)
		workloads, err := r.prepare(trialCtx, op, i, size)
		if err != nil {
			return report, err
		}

		var total time.Duration
		for _, w := range workloads {
			if err := ctx.Err(); err != nil {
				return report, infra.WrapErrorStack(err, "[bench] "+op.String()+" canceled")
			}
			elapsed := hrtime.Measure(r.clock, w.run)
			if err := w.verify(); err != nil {
				return report, err
			}
			total += elapsed
			r.stats.Record(trialCtx, op.String(), size, elapsed)
		}
		trial := Trial{
			Size:    size,
			Average: total / time.Duration(len(workloads)),
			RSS:     r.rss(trialCtx),
		}
		report.Trials = append(report.Trials, trial)
		r.logger.InfoContext(trialCtx, "trial measured",
			zap.Int("size", trial.Size),
			zap.Duration("average", trial.Average),
			zap.Uint64("rss", trial.RSS),
		)
	}

	report.compare(ExpectedScaling(op, r.cfg.InputSize, r.cfg.Scaling, r.cfg.Trials))
	for _, c := range report.Comparisons {
		fields := []zap.Field{
			zap.Int("from", c.From),
			zap.Int("to", c.To),
			zap.Float64("expected", c.Expected),
			zap.Float64("actual", c.Actual),
		}
		if c.Passed {
			r.logger.InfoContext(ctx, "scaling within bounds", fields...)
		} else {
			r.logger.WarnContext(ctx, "scaling out of bounds", fields...)
		}
	}
	return report, nil
}

// RunAll measures every op. Failed ops are left out of the reports and
// their errors combined.
func (r *Runner) RunAll(ctx context.Context) ([]Report, error) {
	reports := make([]Report, 0, len(Ops()))
	var err error
	for _, op := range Ops() {
		report, e := r.Run(ctx, op)
		if e != nil {
			r.logger.ErrorStackContext(ctx, e, "fleet op measurement failed", zap.String("op", op.String()))
			err = multierr.Append(err, e)
			continue
		}
		reports = append(reports, report)
	}
	return reports, err
}

// Passed reports whether every scaling check of every report passed.
func Passed(reports []Report) bool {
	for _, report := range reports {
		if !report.Passed {
			return false
		}
	}
	return true
}

func ratio(after, before time.Duration) float64 {
	if before <= 0 {
		return math.Inf(1)
	}
	return float64(after) / float64(before)
}
