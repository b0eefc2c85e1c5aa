package hrtime

import "time"

// Clock reads a monotonically increasing counter. Readings are only
// meaningful relative to each other.
type Clock interface {
	Name() string
	Now() time.Duration
	Since(begin time.Duration) time.Duration
	Resolution() time.Duration
}

type ClockType uint8

const (
	// ProcessCPU counts CPU time consumed by all threads of the process.
	ProcessCPU ClockType = iota
	// Monotonic counts wall time elapsed since the process started.
	Monotonic
	_clockMax
)

func (typ ClockType) String() string {
	switch typ {
	case ProcessCPU:
		return "cpu"
	case Monotonic:
		return "monotonic"
	default:
	}
	return "unknown"
}

// ParseClockType falls back to ProcessCPU for unknown names.
func ParseClockType(name string) ClockType {
	if name == Monotonic.String() {
		return Monotonic
	}
	return ProcessCPU
}

var (
	ProcessCPUClock Clock = &processCPUClock{}
	MonotonicClock  Clock = &monotonicClock{}
)

func ClockOf(typ ClockType) Clock {
	if typ == Monotonic {
		return MonotonicClock
	}
	return ProcessCPUClock
}

// Measure runs fn once and reports how much the clock advanced.
func Measure(clock Clock, fn func()) time.Duration {
	begin := clock.Now()
	fn()
	return clock.Since(begin)
}
