package ports

import (
	"context"

	"traceval/internal/domain/eval"
)

// LaunchSpec describes one child runtime invocation: the runtime command,
// the search path handed to it via -cp, the entry point to run, and the
// child's working directory.
type LaunchSpec struct {
	Command    string
	Classpath  []string
	EntryPoint string
	WorkingDir string
	Limits     eval.RunLimits
}

// Launcher runs the runtime command against a compiled entry point and
// captures its combined output. A non-zero exit code travels in the result,
// not as an error; errors mean the child could not be spawned, drained, or
// waited on.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec) (*eval.ExecutionResult, error)
	Close() error
}
