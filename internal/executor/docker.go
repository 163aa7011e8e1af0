package executor

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"

	"hookshim/pkg/protocol"
)

// DockerAPI is the subset of the Docker client used by DockerExecutor.
type DockerAPI interface {
	ContainerExecCreate(ctx context.Context, containerID string, options container.ExecOptions) (container.ExecCreateResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, options container.ExecAttachOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

// inspectInterval is how often a finished stream polls for the exec's exit.
const inspectInterval = 50 * time.Millisecond

// DockerExecutor runs the run script inside an existing container.
// The hook directory must be mounted at the same path in the container,
// since the run script and locked file paths are passed through unchanged.
type DockerExecutor struct {
	client      DockerAPI
	containerID string
	passthrough []string
	environ     func() []string
	logger      *log.Logger
}

// NewDockerExecutor creates a Docker-based executor targeting containerID.
// passthrough lists extra environment keys forwarded into the exec.
func NewDockerExecutor(client DockerAPI, containerID string, passthrough []string, logger *log.Logger) *DockerExecutor {
	if logger == nil {
		logger = log.New(os.Stderr, "[docker-exec] ", log.LstdFlags|log.Lmsgprefix)
	}
	return &DockerExecutor{
		client:      client,
		containerID: containerID,
		passthrough: passthrough,
		environ:     os.Environ,
		logger:      logger,
	}
}

// Execute creates an exec for [run, locked, args...], streams its output to
// the invocation's writers, feeds it stdin, and reports its exit code.
func (de *DockerExecutor) Execute(ctx context.Context, inv *protocol.Invocation) (int, error) {
	if err := ValidateInvocation(inv); err != nil {
		return protocol.ExitLaunchFailure, err
	}
	if de.containerID == "" {
		return protocol.ExitLaunchFailure, fmt.Errorf("no container configured for docker executor: %w", protocol.ErrInvocation)
	}

	dir := inv.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return launchFailure(err, "get working directory")
		}
		dir = cwd
	}

	opts := de.execOptions(inv, dir)
	de.logger.Printf("docker exec: %q in container %s (dir=%s)", opts.Cmd, de.containerID, opts.WorkingDir)

	created, err := de.client.ContainerExecCreate(ctx, de.containerID, opts)
	if err != nil {
		return launchFailure(err, "create exec in %s", de.containerID)
	}

	resp, err := de.client.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return launchFailure(err, "attach exec %s", created.ID)
	}
	defer resp.Close()

	if inv.Stdin != nil {
		go func() {
			if _, err := io.Copy(resp.Conn, inv.Stdin); err != nil {
				de.logger.Printf("stdin copy: %v", err)
			}
			resp.CloseWrite()
		}()
	}

	stdout, stderr := inv.Stdout, inv.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if _, err := stdcopy.StdCopy(stdout, stderr, resp.Reader); err != nil {
		de.logger.Printf("stream error: %v", err)
	}

	return de.waitExit(ctx, created.ID)
}

// execOptions builds the exec configuration for inv.
func (de *DockerExecutor) execOptions(inv *protocol.Invocation, dir string) container.ExecOptions {
	cmd := append([]string{inv.RunScript}, inv.Argv()...)
	return container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   dir,
		Env:          ScrubEnvironment(de.environ(), de.passthrough),
		AttachStdin:  inv.Stdin != nil,
		AttachStdout: true,
		AttachStderr: true,
	}
}

// waitExit polls the exec until the daemon reports it finished.
func (de *DockerExecutor) waitExit(ctx context.Context, execID string) (int, error) {
	ticker := time.NewTicker(inspectInterval)
	defer ticker.Stop()

	for {
		inspect, err := de.client.ContainerExecInspect(ctx, execID)
		if err != nil {
			return launchFailure(err, "inspect exec %s", execID)
		}
		if !inspect.Running {
			de.logger.Printf("exec %s exited with code %d", execID, inspect.ExitCode)
			return inspect.ExitCode, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return launchFailure(ctx.Err(), "wait exec %s", execID)
		}
	}
}
