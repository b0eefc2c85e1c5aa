package bench

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/benz9527/xfleet/config"
	"github.com/benz9527/xfleet/lib/fleet"
	"github.com/benz9527/xfleet/lib/hrtime"
	"github.com/benz9527/xfleet/observability"
	"github.com/benz9527/xfleet/xlog"
)

func testBenchConfig() config.BenchConfig {
	cfg := config.Default().Bench
	cfg.InputSize = 200
	cfg.Trials = 3
	cfg.Repeats = 4
	cfg.Workers = 2
	return cfg
}

func testLogger() xlog.XLogger {
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(xlog.LogLevelError),
		xlog.WithXLoggerEncoder(xlog.JSON),
	)
}

func TestOp(t *testing.T) {
	require.Equal(t, "insert", OpInsert.String())
	require.Equal(t, "remove", OpRemove.String())
	require.Equal(t, "find", OpFind.String())
	require.Equal(t, "unknown", _opMax.String())
	for _, op := range Ops() {
		parsed, err := ParseOp(op.String())
		require.NoError(t, err)
		require.Equal(t, op, parsed)
	}
	_, err := ParseOp("clear")
	require.Error(t, err)
}

func TestExpectedScaling(t *testing.T) {
	// floor(log2(j)) sums, 1..1000 is 7987, 1..2000 is 17964.
	res := ExpectedScaling(OpInsert, 1000, 2, 2)
	require.Len(t, res, 1)
	require.InDelta(t, 17964.0/7987.0, res[0], 1e-12)
	require.Equal(t, res, ExpectedScaling(OpFind, 1000, 2, 2))

	// 1000..2000 is 9986, 2000..4000 is 21963.
	res = ExpectedScaling(OpRemove, 1000, 2, 2)
	require.Len(t, res, 1)
	require.InDelta(t, 21963.0/9986.0, res[0], 1e-12)

	res = ExpectedScaling(OpInsert, 4, 2, 3)
	require.Len(t, res, 2)
	require.InDelta(t, 13.0/4.0, res[0], 1e-12)
	require.InDelta(t, 38.0/13.0, res[1], 1e-12)

	res = ExpectedScaling(OpRemove, 4, 2, 2)
	require.InDelta(t, 28.0/11.0, res[0], 1e-12)

	// Empty sums.
	res = ExpectedScaling(OpInsert, 1, 2, 2)
	require.True(t, math.IsInf(res[0], 1))

	require.Empty(t, ExpectedScaling(OpInsert, 1000, 2, 1))
	require.Empty(t, ExpectedScaling(OpInsert, 0, 2, 2))
	require.Empty(t, ExpectedScaling(OpInsert, 1000, 1, 2))
}

func TestWorkload(t *testing.T) {
	for _, op := range Ops() {
		w := newWorkload(op, 150, 5)
		require.Equal(t, 150, len(w.ships))
		w.run()
		require.NoError(t, w.verify())
		require.NoError(t, fleet.Validate(w.fleet))
	}

	w := newWorkload(OpRemove, 100, 5)
	require.Equal(t, int64(200), w.fleet.Len())
	require.Error(t, w.verify())

	w = newWorkload(OpFind, 100, 5)
	require.Error(t, w.verify())

	require.Error(t, (&workload{op: _opMax}).verify())

	// Same seed, same ships.
	require.Equal(t, newWorkload(OpInsert, 50, 9).ships, newWorkload(OpInsert, 50, 9).ships)
	require.NotEqual(t, workloadSeed(1, 0, 1), workloadSeed(1, 1, 0))
}

func TestReportCompare(t *testing.T) {
	report := Report{
		Op:          OpInsert,
		Clock:       "cpu",
		Variability: 0.4,
		Trials: []Trial{
			{Size: 1000, Average: 100 * time.Microsecond},
			{Size: 2000, Average: 220 * time.Microsecond},
			{Size: 4000, Average: 700 * time.Microsecond},
		},
	}
	report.compare([]float64{2.25, 2.2})
	require.Len(t, report.Comparisons, 2)
	require.True(t, report.Comparisons[0].Passed)
	require.InDelta(t, 2.2, report.Comparisons[0].Actual, 1e-9)
	require.False(t, report.Comparisons[1].Passed)
	require.False(t, report.Passed)
	require.False(t, Passed([]Report{report}))

	buf := &bytes.Buffer{}
	require.NoError(t, report.Write(buf))
	out := buf.String()
	require.Contains(t, out, "[insert] clock=cpu")
	require.Contains(t, out, "Inserting 2000 ships into an empty fleet took an average of 220µs")
	require.Contains(t, out, "Expected scaling from 1000 to 2000: 2.2500 ± 0.40, actual scaling: 2.2000 PASSED")
	require.Contains(t, out, "from 2000 to 4000")
	require.Contains(t, out, "FAILED")

	report.Trials[0].Average = 0
	report.compare([]float64{2.25})
	require.True(t, math.IsInf(report.Comparisons[0].Actual, 1))
	require.False(t, report.Passed)

	report.Op = OpRemove
	require.Contains(t, report.describe(Trial{Size: 5}), "from a fleet of 10")
	require.True(t, Passed(nil))
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	_, err := NewRunner(testBenchConfig(), nil)
	require.Error(t, err)

	cfg := testBenchConfig()
	cfg.Trials = 1
	_, err = NewRunner(cfg, testLogger())
	require.Error(t, err)

	_, err = NewRunner(testBenchConfig(), testLogger(), WithRunnerClock(nil))
	require.Error(t, err)
}

func TestRunnerRun(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	cfg := testBenchConfig()
	r, err := NewRunner(cfg, testLogger(),
		WithRunnerClock(hrtime.MonotonicClock),
		WithRunnerOpStats(observability.NewOpStats(mp)),
	)
	require.NoError(t, err)
	defer r.Release()

	reports, err := r.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, len(Ops()))
	for i, report := range reports {
		require.Equal(t, Ops()[i], report.Op)
		require.Equal(t, "monotonic", report.Clock)
		require.Len(t, report.Trials, cfg.Trials)
		require.Equal(t, []int{200, 400, 800}, []int{
			report.Trials[0].Size, report.Trials[1].Size, report.Trials[2].Size,
		})
		require.Len(t, report.Comparisons, cfg.Trials-1)
		for _, trial := range report.Trials {
			require.Greater(t, trial.Average, time.Duration(0))
		}
	}

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var measured uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if hist, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == "xfleet.op.duration" {
				for _, dp := range hist.DataPoints {
					measured += dp.Count
				}
			}
		}
	}
	require.Equal(t, uint64(len(Ops())*cfg.Trials*cfg.Repeats), measured)
}

func TestRunnerCanceled(t *testing.T) {
	r, err := NewRunner(testBenchConfig(), testLogger())
	require.NoError(t, err)
	defer r.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, OpInsert)
	require.ErrorIs(t, err, context.Canceled)

	reports, err := r.RunAll(ctx)
	require.Error(t, err)
	require.Empty(t, reports)

	_, err = r.Run(context.Background(), _opMax)
	require.Error(t, err)
}
