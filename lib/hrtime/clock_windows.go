//go:build windows
// +build windows

package hrtime

// References:
// https://github.com/loov/hrtime

import (
	"errors"
	"time"
	"unsafe"

	"github.com/samber/lo"
	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazyDLL("kernel32.dll")
	procQPF  = kernel32.NewProc("QueryPerformanceFrequency")
	procQPC  = kernel32.NewProc("QueryPerformanceCounter")
)

func getFrequency() int64 {
	var freq int64
	r1, _, err := procQPF.Call(uintptr(unsafe.Pointer(&freq)))
	if err != nil && !errors.Is(err, windows.SEVERITY_SUCCESS) || r1 != 1 {
		panic(err)
	}
	return freq
}

func getCounter() int64 {
	var counter int64
	r1, _, err := procQPC.Call(uintptr(unsafe.Pointer(&counter)))
	if err != nil && !errors.Is(err, windows.SEVERITY_SUCCESS) || r1 != 1 {
		panic(err)
	}
	return counter
}

var (
	baseProcFreq    = getFrequency()
	baseProcCounter = getCounter()
)

// FILETIME counts 100ns intervals.
func filetime(ft windows.Filetime) time.Duration {
	return time.Duration(uint64(ft.HighDateTime)<<32|uint64(ft.LowDateTime)) * 100
}

type processCPUClock struct{}

func (c *processCPUClock) Name() string {
	return ProcessCPU.String()
}

func (c *processCPUClock) Now() time.Duration {
	var creation, exit, kernel, user windows.Filetime
	lo.Must0(windows.GetProcessTimes(windows.CurrentProcess(), &creation, &exit, &kernel, &user))
	return filetime(kernel) + filetime(user)
}

func (c *processCPUClock) Since(begin time.Duration) time.Duration {
	return c.Now() - begin
}

func (c *processCPUClock) Resolution() time.Duration {
	// Scheduler tick.
	return 15625 * time.Microsecond
}

type monotonicClock struct{}

func (c *monotonicClock) Name() string {
	return Monotonic.String()
}

func (c *monotonicClock) Now() time.Duration {
	return time.Duration(getCounter()-baseProcCounter) * time.Second / (time.Duration(baseProcFreq) * time.Nanosecond)
}

func (c *monotonicClock) Since(begin time.Duration) time.Duration {
	return c.Now() - begin
}

func (c *monotonicClock) Resolution() time.Duration {
	return time.Duration(float64(time.Second) / float64(baseProcFreq))
}
