// Package shim implements the hook-side delegator.
// It works out which hook it was invoked as, locates the sibling run script
// and the hook's locked payload, runs the script with the payload and the
// caller's arguments, and exits with the script's status.
package shim

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/docker/docker/client"

	"hookshim/internal/executor"
	"hookshim/pkg/protocol"
)

// Shim is a single delegation: the process arguments and the streams
// handed to the child.
type Shim struct {
	Args   []string // Full argument vector, program name first
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	newDockerClient func() (executor.DockerAPI, error)
}

// New creates a shim for the given argument vector and streams.
func New(args []string, stdin io.Reader, stdout, stderr io.Writer) *Shim {
	return &Shim{
		Args:            args,
		Stdin:           stdin,
		Stdout:          stdout,
		Stderr:          stderr,
		newDockerClient: dockerFromEnv,
	}
}

// Run executes the shim for the current process and returns the exit code.
func Run() int {
	return New(os.Args, os.Stdin, os.Stdout, os.Stderr).Run(context.Background())
}

// Run delegates to the run script and returns the exit code to terminate with.
// Failures to launch are reported on Stderr and mapped to
// protocol.ExitLaunchFailure.
func (s *Shim) Run(ctx context.Context) int {
	argv0 := ""
	var args []string
	if len(s.Args) > 0 {
		argv0 = s.Args[0]
		args = s.Args[1:]
	}
	hook := HookName(argv0)

	dir, err := ScriptDir(argv0)
	if err != nil {
		return s.fail(hook, err)
	}

	cfg, err := LoadConfig(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return s.fail(hook, err)
	}

	logger := s.logger(cfg)
	layout := NewLayout(dir, hook, cfg)
	logger.Printf("hook %s: run=%s locked=%s executor=%s", hook, layout.RunScript, layout.LockedFile, cfg.Executor)

	ex, err := s.executor(cfg, logger)
	if err != nil {
		return s.fail(hook, err)
	}

	inv := layout.Invocation(args)
	inv.Stdin = s.Stdin
	inv.Stdout = s.Stdout
	inv.Stderr = s.Stderr

	code, err := ex.Execute(ctx, inv)
	if err != nil {
		return s.fail(hook, err)
	}
	return code
}

// executor picks the delegation strategy named by cfg.
func (s *Shim) executor(cfg *Config, logger *log.Logger) (executor.Executor, error) {
	switch cfg.Executor {
	case ExecutorDocker:
		cli, err := s.newDockerClient()
		if err != nil {
			return nil, fmt.Errorf("create docker client: %w: %w", protocol.ErrInvocation, err)
		}
		return executor.NewDockerExecutor(cli, cfg.Container, cfg.EnvPassthrough, logger), nil
	default:
		return executor.NewLocalExecutor(logger), nil
	}
}

// logger returns the debug logger; it discards output unless cfg.Debug is set.
func (s *Shim) logger(cfg *Config) *log.Logger {
	out := io.Discard
	if cfg.Debug && s.Stderr != nil {
		out = s.Stderr
	}
	return log.New(out, "[hookshim] ", log.LstdFlags|log.Lmsgprefix)
}

func (s *Shim) fail(hook string, err error) int {
	if s.Stderr != nil {
		fmt.Fprintf(s.Stderr, "hookshim [%s]: %v\n", hook, err)
	}
	return protocol.ExitLaunchFailure
}

func dockerFromEnv() (executor.DockerAPI, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}
