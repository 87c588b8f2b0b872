// Package hostexec launches the runtime command as a plain child process on
// the service host.
package hostexec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"traceval/internal/domain/eval"
	"traceval/internal/ports"
)

// Launcher implements ports.Launcher over os/exec. Every Launch call owns
// its child process and the two goroutines draining it; nothing is pooled or
// shared across calls.
type Launcher struct{}

var _ ports.Launcher = (*Launcher)(nil)

// New constructs a host-process Launcher.
func New() *Launcher {
	return &Launcher{}
}

// Launch runs spec.Command with [-cp, <joined classpath>, <entry point>] in
// the requested working directory and with no standard input. Both output
// streams are drained concurrently into one shared transcript as bytes
// arrive, and both drains are joined before Launch returns on every path.
//
// The child's exit code is reported verbatim: a non-zero code is a result,
// not an error. Errors mean the child could not be spawned, drained, or
// waited on, or that the time limit expired (TimeoutError) or the context
// was canceled, both of which kill the child's whole process group.
func (l *Launcher) Launch(ctx context.Context, spec ports.LaunchSpec) (*eval.ExecutionResult, error) {
	runCtx := ctx
	if limit := spec.Limits.TimeLimit; limit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}

	cmd := exec.Command(spec.Command, "-cp", strings.Join(spec.Classpath, string(os.PathListSeparator)), spec.EntryPoint)
	cmd.Dir = spec.WorkingDir
	// Own process group, so a kill reaches anything the runtime spawned.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	// Stdin stays nil: the child sees immediate EOF, instrumented programs
	// do not read input.

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, &eval.ExecutionError{Err: err}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, &eval.ExecutionError{Err: err}
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	started := time.Now()
	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		return nil, &eval.ExecutionError{Err: err}
	}

	// The child holds its own copies of the write ends; dropping ours makes
	// the read ends hit EOF exactly when the whole process group is done
	// writing.
	outW.Close()
	errW.Close()

	var combined lockedBuffer
	var drains sync.WaitGroup
	drains.Add(2)
	go drainStream(&drains, &combined, outR)
	go drainStream(&drains, &combined, errR)

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-runCtx.Done():
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		<-waitCh
		drains.Wait()
		outR.Close()
		errR.Close()
		if spec.Limits.TimeLimit > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &eval.TimeoutError{Limit: spec.Limits.TimeLimit}
		}
		return nil, &eval.ExecutionError{Err: runCtx.Err()}
	}

	drains.Wait()
	outR.Close()
	errR.Close()

	result := &eval.ExecutionResult{
		CombinedOutput: combined.String(),
		Duration:       time.Since(started),
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &eval.ExecutionError{Err: waitErr}
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// Close implements ports.Launcher; the host launcher holds no resources.
func (l *Launcher) Close() error {
	return nil
}

func drainStream(wg *sync.WaitGroup, dst io.Writer, src io.Reader) {
	defer wg.Done()
	_, _ = io.Copy(dst, src)
}

// lockedBuffer lets both drain goroutines append to one transcript. Within
// each stream ordering is exact; interleaving across streams follows
// arrival.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
