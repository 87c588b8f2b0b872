// Package dockerexec launches the runtime command inside a Docker container.
// The evaluation working directory and every classpath entry are staged into
// the container before it starts, so the child sees the same file layout as
// a host launch. Container logs become the combined output transcript.
package dockerexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	typesimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"traceval/internal/domain/eval"
	"traceval/internal/ports"
)

// Launcher implements ports.Launcher backed by Docker containers.
type Launcher struct {
	cli dockerClient
	cfg Config

	pullOnce sync.Once
	pullErr  error
}

var _ ports.Launcher = (*Launcher)(nil)

// New constructs a Launcher talking to the Docker daemon from the
// environment.
func New(cfg Config) (*Launcher, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker launcher: create client: %w", err)
	}

	launcher, err := newLauncherWithClient(cli, cfg)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}

	return launcher, nil
}

func newLauncherWithClient(cli dockerClient, cfg Config) (*Launcher, error) {
	if cfg.Image == "" {
		return nil, errors.New("docker launcher: image must not be empty")
	}
	if cfg.Workdir == "" {
		cfg.Workdir = "/workspace"
	}

	return &Launcher{cli: cli, cfg: cfg}, nil
}

// Launch stages the run's files, starts a container running the fixed
// argument vector, and waits for it to exit. The child runs without stdin.
// A time limit exceeded inside the container surfaces as TimeoutError after
// the container is stopped; exit codes pass through verbatim.
func (l *Launcher) Launch(ctx context.Context, spec ports.LaunchSpec) (*eval.ExecutionResult, error) {
	if err := l.ensureImage(ctx); err != nil {
		return nil, &eval.ExecutionError{Err: err}
	}

	archive, classpath, err := stageFiles(l.cfg.Workdir, spec.WorkingDir, spec.Classpath)
	if err != nil {
		return nil, err
	}

	containerID, cleanup, err := l.createContainer(ctx, spec, classpath)
	if err != nil {
		return nil, &eval.ExecutionError{Err: err}
	}
	defer cleanup()

	if archive != nil {
		if err := l.cli.CopyToContainer(ctx, containerID, l.cfg.Workdir, archive, types.CopyToContainerOptions{AllowOverwriteDirWithFile: true}); err != nil {
			return nil, &eval.ExecutionError{Err: fmt.Errorf("copy files: %w", err)}
		}
	}

	start := time.Now()
	if err := l.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, &eval.ExecutionError{Err: fmt.Errorf("start container: %w", err)}
	}

	waitCtx := ctx
	var cancel context.CancelFunc
	if spec.Limits.TimeLimit > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, spec.Limits.TimeLimit)
	}
	status, err := l.waitForExit(waitCtx, containerID)
	if cancel != nil {
		cancel()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			l.stopContainer(containerID)
		}
		if errors.Is(err, context.DeadlineExceeded) && spec.Limits.TimeLimit > 0 && ctx.Err() == nil {
			return nil, &eval.TimeoutError{Limit: spec.Limits.TimeLimit}
		}
		return nil, &eval.ExecutionError{Err: err}
	}

	logCtx := ctx
	if logCtx.Err() != nil {
		logCtx = context.Background()
	}
	output, err := l.fetchLogs(logCtx, containerID)
	if err != nil {
		return nil, &eval.ExecutionError{Err: fmt.Errorf("fetch logs: %w", err)}
	}

	return &eval.ExecutionResult{
		CombinedOutput: output,
		ExitCode:       int(status.StatusCode),
		Duration:       time.Since(start),
	}, nil
}

// Close releases the Docker client.
func (l *Launcher) Close() error {
	return l.cli.Close()
}

func (l *Launcher) ensureImage(ctx context.Context) error {
	l.pullOnce.Do(func() {
		l.pullErr = l.pullImage(ctx, l.cfg.Image)
	})
	return l.pullErr
}

func (l *Launcher) pullImage(ctx context.Context, ref string) error {
	reader, err := l.cli.ImagePull(ctx, ref, typesimage.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("consume pull output for %s: %w", ref, err)
	}
	return nil
}

func (l *Launcher) createContainer(ctx context.Context, spec ports.LaunchSpec, classpath string) (string, func(), error) {
	hostConfig := &container.HostConfig{
		Resources: container.Resources{
			NanoCPUs: 1_000_000_000,
		},
	}
	if spec.Limits.MemoryLimitBytes > 0 {
		hostConfig.Resources.Memory = spec.Limits.MemoryLimitBytes
		hostConfig.Resources.MemorySwap = spec.Limits.MemoryLimitBytes
	}

	resp, err := l.cli.ContainerCreate(
		ctx,
		&container.Config{
			Image:        l.cfg.Image,
			Cmd:          []string{spec.Command, "-cp", classpath, spec.EntryPoint},
			AttachStdout: true,
			AttachStderr: true,
			WorkingDir:   l.cfg.Workdir,
		},
		hostConfig,
		nil,
		nil,
		"",
	)
	if err != nil {
		return "", nil, fmt.Errorf("create container: %w", err)
	}

	cleanup := func() {
		_ = l.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}

	return resp.ID, cleanup, nil
}

func (l *Launcher) waitForExit(ctx context.Context, containerID string) (*container.WaitResponse, error) {
	statusCh, errCh := l.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return nil, fmt.Errorf("container error: %s", status.Error.Message)
		}
		return &status, nil
	case err := <-errCh:
		return nil, fmt.Errorf("wait for container: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for container: %w", ctx.Err())
	}
}

func (l *Launcher) stopContainer(containerID string) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.cli.ContainerStop(stopCtx, containerID, container.StopOptions{})
}

// fetchLogs reads the finished container's log stream into one transcript.
// Writing both demultiplexed streams into the same buffer keeps the daemon's
// arrival order.
func (l *Launcher) fetchLogs(ctx context.Context, containerID string) (string, error) {
	logs, err := l.cli.ContainerLogs(ctx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", err
	}
	defer logs.Close()

	var combined bytes.Buffer
	if _, err := stdcopy.StdCopy(&combined, &combined, logs); err != nil {
		return "", err
	}

	return combined.String(), nil
}
