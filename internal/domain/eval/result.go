package eval

import "time"

// ExecutionResult captures what a finished child process produced.
//
// CombinedOutput interleaves stdout and stderr bytes in arrival order;
// within each stream the order is exact, across streams it is best effort.
// ExitCode is the verbatim code reported by the operating system; a non-zero
// value is data, not a failure.
type ExecutionResult struct {
	CombinedOutput string
	ExitCode       int
	Duration       time.Duration
}
