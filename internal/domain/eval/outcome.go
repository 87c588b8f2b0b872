package eval

import "time"

// Status tags the terminal state of one evaluation.
type Status string

const (
	// StatusSuccess means the source compiled cleanly and the child process
	// ran to completion, whatever its exit code.
	StatusSuccess Status = "success"
	// StatusCompileFailure means the compiler ran and reported at least one
	// error diagnostic; execution was never attempted.
	StatusCompileFailure Status = "compile_failure"
	// StatusExecutionFailure means the pipeline faulted: the source could not
	// be materialized, the compiler could not be invoked, or the child
	// runtime could not be launched, drained, or waited on (including time
	// limit expiry).
	StatusExecutionFailure Status = "execution_failure"
	// StatusError means the request was structurally invalid and never
	// entered the pipeline.
	StatusError Status = "error"
)

// Outcome is the terminal report for one evaluation request. Exactly one
// variant is populated; use the constructor matching the status instead of
// building one by hand.
type Outcome struct {
	RequestID string
	Status    Status
	// Output and ExitCode are set for StatusSuccess.
	Output   string
	ExitCode int
	// Report is set for StatusCompileFailure.
	Report *CompilationReport
	// Cause is set for StatusExecutionFailure and StatusError.
	Cause error
	// Duration covers the whole pipeline, not just the child run.
	Duration time.Duration
}

// SuccessOutcome builds the outcome for a completed run.
func SuccessOutcome(requestID string, result *ExecutionResult, duration time.Duration) Outcome {
	return Outcome{
		RequestID: requestID,
		Status:    StatusSuccess,
		Output:    result.CombinedOutput,
		ExitCode:  result.ExitCode,
		Duration:  duration,
	}
}

// CompileFailureOutcome builds the outcome for a compile with error diagnostics.
func CompileFailureOutcome(requestID string, report *CompilationReport, duration time.Duration) Outcome {
	return Outcome{
		RequestID: requestID,
		Status:    StatusCompileFailure,
		Report:    report,
		Duration:  duration,
	}
}

// ExecutionFailureOutcome builds the outcome for a failed or timed-out launch.
func ExecutionFailureOutcome(requestID string, cause error, duration time.Duration) Outcome {
	return Outcome{
		RequestID: requestID,
		Status:    StatusExecutionFailure,
		Cause:     cause,
		Duration:  duration,
	}
}

// ErrorOutcome builds the outcome for a fault outside the pipeline stages.
func ErrorOutcome(requestID string, err error, duration time.Duration) Outcome {
	return Outcome{
		RequestID: requestID,
		Status:    StatusError,
		Cause:     err,
		Duration:  duration,
	}
}
