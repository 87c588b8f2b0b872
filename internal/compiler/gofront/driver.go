// Package gofront drives the Go front end in process. Each compile call
// parses and type-checks one materialized source unit, turns every compiler
// message into a diagnostic, and emits gc export data as the compile
// artifact, either into a configured output directory or into an in-memory
// handle on the report.
package gofront

import (
	"context"
	"os"
	"strings"

	"traceval/internal/domain/eval"
	"traceval/internal/ports"
)

// Config is the project-level compiler configuration shared by every compile
// call. OutputDir is optional; when empty, artifacts stay in memory and are
// exposed through the report's Output handle.
type Config struct {
	OutputDir string
	ExtraArgs []string
}

// Driver implements ports.Compiler. The driver holds no mutable compiler
// state; every call builds its own settings, file set, and checker.
type Driver struct {
	cfg Config
}

var _ ports.Compiler = (*Driver)(nil)

// New constructs a Driver over the provided configuration.
func New(cfg Config) *Driver {
	return &Driver{cfg: cfg}
}

// Compile assembles the full compiler argument list for the job (classpath
// and output-directory options, extra arguments, source path last), parses
// it into fresh per-call settings, and runs the front end. Source errors are
// diagnostics on the report, never Go errors; only a failure to drive the
// front end at all is returned, as a CompilerInvocationError.
func (d *Driver) Compile(ctx context.Context, job ports.CompileJob) (*eval.CompilationReport, error) {
	cfg, err := parseArgs(d.buildArgs(job))
	if err != nil {
		return nil, &eval.CompilerInvocationError{Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, &eval.CompilerInvocationError{Err: err}
	}

	return d.check(cfg)
}

func (d *Driver) buildArgs(job ports.CompileJob) []string {
	args := make([]string, 0, len(d.cfg.ExtraArgs)+len(job.ExtraArgs)+5)
	if len(job.Classpath) > 0 {
		args = append(args, "-cp", strings.Join(job.Classpath, string(os.PathListSeparator)))
	}
	if d.cfg.OutputDir != "" {
		args = append(args, "-d", d.cfg.OutputDir)
	}
	args = append(args, d.cfg.ExtraArgs...)
	args = append(args, job.ExtraArgs...)
	args = append(args, job.SourcePath)
	return args
}
