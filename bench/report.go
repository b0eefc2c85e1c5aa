package bench

import (
	"fmt"
	"io"
	"time"
)

type Trial struct {
	Size    int
	Average time.Duration
	RSS     uint64
}

// Comparison checks the time growth between two neighbouring trials.
type Comparison struct {
	From     int
	To       int
	Expected float64
	Actual   float64
	Passed   bool
}

type Report struct {
	Op          Op
	Clock       string
	Variability float64
	Trials      []Trial
	Comparisons []Comparison
	Passed      bool
}

func (report *Report) compare(expected []float64) {
	report.Comparisons = make([]Comparison, 0, len(expected))
	report.Passed = true
	for i := 0; i+1 < len(report.Trials) && i < len(expected); i++ {
		actual := ratio(report.Trials[i+1].Average, report.Trials[i].Average)
		c := Comparison{
			From:     report.Trials[i].Size,
			To:       report.Trials[i+1].Size,
			Expected: expected[i],
			Actual:   actual,
			Passed: actual <= expected[i]+report.Variability &&
				actual >= expected[i]-report.Variability,
		}
		report.Passed = report.Passed && c.Passed
		report.Comparisons = append(report.Comparisons, c)
	}
}

func (report *Report) describe(trial Trial) string {
	switch report.Op {
	case OpInsert:
		return fmt.Sprintf("Inserting %d ships into an empty fleet", trial.Size)
	case OpRemove:
		return fmt.Sprintf("Removing %d ships from a fleet of %d", trial.Size, 2*trial.Size)
	case OpFind:
		return fmt.Sprintf("Finding every ship in a fleet of %d", trial.Size)
	default:
	}
	return fmt.Sprintf("Running %d %s ops", trial.Size, report.Op)
}

// Write prints the report the way the scaling checks are read by people.
func (report *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "[%s] clock=%s\n", report.Op, report.Clock); err != nil {
		return err
	}
	for _, trial := range report.Trials {
		if _, err := fmt.Fprintf(w, "\t%s took an average of %v\n", report.describe(trial), trial.Average); err != nil {
			return err
		}
	}
	for _, c := range report.Comparisons {
		verdict := "PASSED"
		if !c.Passed {
			verdict = "FAILED"
		}
		if _, err := fmt.Fprintf(w, "\tExpected scaling from %d to %d: %.4f ± %.2f, actual scaling: %.4f %s\n",
			c.From, c.To, c.Expected, report.Variability, c.Actual, verdict); err != nil {
			return err
		}
	}
	return nil
}
