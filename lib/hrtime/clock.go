//go:build !windows
// +build !windows

package hrtime

import (
	"time"

	"github.com/samber/lo"
	"golang.org/x/sys/unix"
)

var unixMonotonicStartTs int64

func init() {
	ts := unix.Timespec{}
	lo.Must0(unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts))
	unixMonotonicStartTs = ts.Nano()
}

func clockGettime(clockID int32) time.Duration {
	ts := unix.Timespec{}
	lo.Must0(unix.ClockGettime(clockID, &ts))
	return time.Duration(ts.Nano())
}

func clockGetres(clockID int32) time.Duration {
	ts := unix.Timespec{}
	if err := unix.ClockGetres(clockID, &ts); err != nil {
		return time.Microsecond
	}
	return time.Duration(ts.Nano())
}

type processCPUClock struct{}

func (c *processCPUClock) Name() string {
	return ProcessCPU.String()
}

func (c *processCPUClock) Now() time.Duration {
	return clockGettime(unix.CLOCK_PROCESS_CPUTIME_ID)
}

func (c *processCPUClock) Since(begin time.Duration) time.Duration {
	return c.Now() - begin
}

func (c *processCPUClock) Resolution() time.Duration {
	return clockGetres(unix.CLOCK_PROCESS_CPUTIME_ID)
}

type monotonicClock struct{}

func (c *monotonicClock) Name() string {
	return Monotonic.String()
}

func (c *monotonicClock) Now() time.Duration {
	return clockGettime(unix.CLOCK_MONOTONIC) - time.Duration(unixMonotonicStartTs)
}

func (c *monotonicClock) Since(begin time.Duration) time.Duration {
	return c.Now() - begin
}

func (c *monotonicClock) Resolution() time.Duration {
	return clockGetres(unix.CLOCK_MONOTONIC)
}
