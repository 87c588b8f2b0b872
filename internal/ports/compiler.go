package ports

import (
	"context"

	"traceval/internal/domain/eval"
)

// CompileJob identifies one materialized source unit and the per-call
// options for compiling it.
type CompileJob struct {
	SourcePath string
	Classpath  []string
	ExtraArgs  []string
}

// Compiler drives a compiler run and reports diagnostics as data.
// Implementations return an error only when the compiler could not be
// invoked at all; source errors appear in the report instead.
type Compiler interface {
	Compile(ctx context.Context, job CompileJob) (*eval.CompilationReport, error)
}
