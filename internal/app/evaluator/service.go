// Package evaluator orchestrates the evaluation pipeline: materialize the
// instrumented source, compile it in process, and launch the runtime command
// when the compile is clean.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"traceval/internal/domain/eval"
	"traceval/internal/ports"
	"traceval/internal/source"
)

// Config carries the execution settings shared by every evaluation.
type Config struct {
	// RuntimeCommand is the runtime launcher executable, resolved via PATH
	// unless absolute.
	RuntimeCommand string
	// DefaultLimits applies wherever a request carries no limit of its own.
	DefaultLimits eval.RunLimits
}

// Service runs evaluations over a compiler and a launcher implementation.
type Service struct {
	compiler ports.Compiler
	launcher ports.Launcher
	cfg      Config
	locks    *nameLocks
}

// NewService constructs a Service with the provided pipeline dependencies.
func NewService(compiler ports.Compiler, launcher ports.Launcher, cfg Config) (*Service, error) {
	if compiler == nil {
		return nil, errors.New("compiler must not be nil")
	}
	if launcher == nil {
		return nil, errors.New("launcher must not be nil")
	}
	if cfg.RuntimeCommand == "" {
		return nil, errors.New("runtime command must not be empty")
	}

	return &Service{
		compiler: compiler,
		launcher: launcher,
		cfg:      cfg,
		locks:    newNameLocks(),
	}, nil
}

// Evaluate runs the full pipeline for one request: exactly one outcome per
// request, no retries. Compile errors short-circuit before any child process
// is spawned; materialization, compiler-invocation, launch, and timeout
// faults all land in the execution-failure outcome with their typed cause.
// The returned error is reserved for requests that are structurally invalid.
//
// Evaluations that would materialize the same source file are serialized;
// everything else may run concurrently.
func (s *Service) Evaluate(ctx context.Context, req eval.Request) (outcome eval.Outcome, err error) {
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = nil
			cause := &eval.ExecutionError{Err: fmt.Errorf("panic during evaluation: %v", r)}
			outcome = eval.ExecutionFailureOutcome(req.ID, cause, time.Since(started))
		}
	}()

	if err := req.Validate(); err != nil {
		return eval.Outcome{}, err
	}

	release := s.locks.acquire(source.InstrumentedPath(req.WorkingDir, req.EntryPoint))
	defer release()

	materialized, err := source.Materialize(req.WorkingDir, req.EntryPoint, req.Source)
	if err != nil {
		return eval.ExecutionFailureOutcome(req.ID, err, time.Since(started)), nil
	}

	report, err := s.compiler.Compile(ctx, ports.CompileJob{
		SourcePath: materialized.FilePath,
		Classpath:  req.Classpath,
	})
	if err != nil {
		return eval.ExecutionFailureOutcome(req.ID, err, time.Since(started)), nil
	}

	if report.HasErrors() {
		return eval.CompileFailureOutcome(req.ID, report, time.Since(started)), nil
	}

	classpath, cleanup, err := s.runClasspath(req, report)
	if err != nil {
		return eval.ExecutionFailureOutcome(req.ID, err, time.Since(started)), nil
	}
	defer cleanup()

	result, err := s.launcher.Launch(ctx, ports.LaunchSpec{
		Command:    s.cfg.RuntimeCommand,
		Classpath:  classpath,
		EntryPoint: req.EntryPoint,
		WorkingDir: req.WorkingDir,
		Limits:     s.effectiveLimits(req),
	})
	if err != nil {
		return eval.ExecutionFailureOutcome(req.ID, err, time.Since(started)), nil
	}

	return eval.SuccessOutcome(req.ID, result, time.Since(started)), nil
}

// runClasspath prepends the compile output to the request's search path. An
// in-memory artifact is flushed to a scratch directory first; the returned
// cleanup removes only that directory, never the materialized source.
func (s *Service) runClasspath(req eval.Request, report *eval.CompilationReport) ([]string, func(), error) {
	if report.Output == nil {
		return req.Classpath, func() {}, nil
	}

	dir, err := os.MkdirTemp(req.WorkingDir, ".traceval-out-")
	if err != nil {
		return nil, nil, &eval.IOError{Op: "create artifact directory", Path: req.WorkingDir, Err: err}
	}
	if err := os.WriteFile(filepath.Join(dir, report.Output.Name), report.Output.Data, 0o644); err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, &eval.IOError{Op: "flush artifact", Path: filepath.Join(dir, report.Output.Name), Err: err}
	}

	classpath := make([]string, 0, len(req.Classpath)+1)
	classpath = append(classpath, dir)
	classpath = append(classpath, req.Classpath...)

	return classpath, func() { _ = os.RemoveAll(dir) }, nil
}

func (s *Service) effectiveLimits(req eval.Request) eval.RunLimits {
	limits := req.Limits
	if limits.TimeLimit <= 0 {
		limits.TimeLimit = s.cfg.DefaultLimits.TimeLimit
	}
	if limits.MemoryLimitBytes <= 0 {
		limits.MemoryLimitBytes = s.cfg.DefaultLimits.MemoryLimitBytes
	}
	return limits
}

// Close releases the launcher's resources.
func (s *Service) Close() error {
	return s.launcher.Close()
}
