package eval

import (
	"fmt"
	"time"
)

// IOError reports a filesystem failure while preparing an evaluation, such
// as the materialized source file not being writable.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// CompilerInvocationError reports that the compiler could not be driven to
// completion: a malformed argument list, an unreadable source file, an
// artifact that could not be written, or an internal compiler fault. Source
// errors are not invocation errors; they travel as diagnostics.
type CompilerInvocationError struct {
	Err error
}

func (e *CompilerInvocationError) Error() string {
	return fmt.Sprintf("invoke compiler: %v", e.Err)
}

func (e *CompilerInvocationError) Unwrap() error { return e.Err }

// ExecutionError reports that the child runtime could not be spawned,
// communicated with, or waited on.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("launch runtime: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TimeoutError reports that a child run exceeded its time limit and was
// forcefully terminated.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("execution exceeded the %s time limit", e.Limit)
}
