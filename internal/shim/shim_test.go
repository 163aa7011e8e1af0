//go:build !windows

package shim

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hookshim/internal/executor"
	"hookshim/pkg/protocol"
)

// pluginDir lays out <root>/run and <root>/hooks and returns the hooks dir.
// An empty runBody leaves the run script out.
func pluginDir(t *testing.T, runBody string) string {
	t.Helper()
	root := t.TempDir()
	hooks := filepath.Join(root, "hooks")
	if err := os.Mkdir(hooks, 0755); err != nil {
		t.Fatal(err)
	}
	if runBody != "" {
		run := filepath.Join(root, "run")
		if err := os.WriteFile(run, []byte("#!/bin/sh\n"+runBody+"\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	return hooks
}

func runShim(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	s := New(args, strings.NewReader(""), &out, &errOut)
	code = s.Run(context.Background())
	return code, out.String(), errOut.String()
}

func TestShimEchoesLockedFileAndArgs(t *testing.T) {
	hooks := pluginDir(t, `echo "$@"`)
	hook := filepath.Join(hooks, "security_reminder_hook.py")

	code, stdout, stderr := runShim(t, hook, "foo", "bar")
	if code != 0 {
		t.Errorf("exit code: got %d, want 0 (stderr=%q)", code, stderr)
	}

	want := filepath.Join(hooks, "security_reminder_hook.py.locked") + " foo bar\n"
	if stdout != want {
		t.Errorf("stdout: got %q, want %q", stdout, want)
	}
	if stderr != "" {
		t.Errorf("shim should be silent on success, stderr=%q", stderr)
	}
}

func TestShimNoArgs(t *testing.T) {
	hooks := pluginDir(t, `echo "$#:$1"`)
	hook := filepath.Join(hooks, "security_reminder_hook.py")

	code, stdout, _ := runShim(t, hook)
	if code != 0 {
		t.Errorf("exit code: got %d, want 0", code)
	}
	want := "1:" + filepath.Join(hooks, "security_reminder_hook.py.locked") + "\n"
	if stdout != want {
		t.Errorf("stdout: got %q, want %q", stdout, want)
	}
}

func TestShimPropagatesExitCode(t *testing.T) {
	hooks := pluginDir(t, "exit 3")
	hook := filepath.Join(hooks, "security_reminder_hook.py")

	for i := 0; i < 2; i++ {
		code, _, stderr := runShim(t, hook, "x")
		if code != 3 {
			t.Errorf("run %d: exit code: got %d, want 3", i, code)
		}
		if stderr != "" {
			t.Errorf("run %d: unexpected stderr %q", i, stderr)
		}
	}
}

func TestShimMissingRunScript(t *testing.T) {
	hooks := pluginDir(t, "")
	hook := filepath.Join(hooks, "security_reminder_hook.py")

	code, stdout, stderr := runShim(t, hook, "foo")
	if code != protocol.ExitLaunchFailure {
		t.Errorf("exit code: got %d, want %d", code, protocol.ExitLaunchFailure)
	}
	if stdout != "" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if !strings.HasPrefix(stderr, "hookshim [security_reminder_hook.py]: ") {
		t.Errorf("stderr: got %q", stderr)
	}
	if strings.Count(stderr, "\n") != 1 {
		t.Errorf("expected a single diagnostic line, got %q", stderr)
	}
}

func TestShimInvalidConfig(t *testing.T) {
	hooks := pluginDir(t, "exit 0")
	if err := os.WriteFile(filepath.Join(hooks, ConfigFileName), []byte("executor: ssh\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runShim(t, filepath.Join(hooks, "security_reminder_hook.py"))
	if code != protocol.ExitLaunchFailure {
		t.Errorf("exit code: got %d, want %d", code, protocol.ExitLaunchFailure)
	}
	if !strings.Contains(stderr, "unknown executor") {
		t.Errorf("stderr: got %q", stderr)
	}
}

func TestShimHookNameSelectsLockedFile(t *testing.T) {
	hooks := pluginDir(t, `echo "$1"`)
	cfg := "hooks:\n  format_hook: shared.locked\n"
	if err := os.WriteFile(filepath.Join(hooks, ConfigFileName), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		hook   string
		locked string
	}{
		{"lint_hook", "lint_hook.locked"},
		{"format_hook", "shared.locked"},
	}

	for _, tt := range tests {
		code, stdout, _ := runShim(t, filepath.Join(hooks, tt.hook))
		if code != 0 {
			t.Errorf("%s: exit code %d", tt.hook, code)
		}
		if want := filepath.Join(hooks, tt.locked) + "\n"; stdout != want {
			t.Errorf("%s: got %q, want %q", tt.hook, stdout, want)
		}
	}
}

func TestShimDebugLogging(t *testing.T) {
	hooks := pluginDir(t, "exit 0")
	if err := os.WriteFile(filepath.Join(hooks, ConfigFileName), []byte("debug: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runShim(t, filepath.Join(hooks, "security_reminder_hook.py"))
	if code != 0 {
		t.Errorf("exit code: got %d", code)
	}
	if !strings.Contains(stderr, "[hookshim] ") {
		t.Errorf("expected debug output on stderr, got %q", stderr)
	}
}

func TestShimDockerClientFailure(t *testing.T) {
	hooks := pluginDir(t, "exit 0")
	cfg := "executor: docker\ncontainer: sandbox\n"
	if err := os.WriteFile(filepath.Join(hooks, ConfigFileName), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}

	var stderr bytes.Buffer
	s := New([]string{filepath.Join(hooks, "security_reminder_hook.py")}, nil, &bytes.Buffer{}, &stderr)
	s.newDockerClient = func() (executor.DockerAPI, error) {
		return nil, errors.New("cannot connect to the docker daemon")
	}

	if code := s.Run(context.Background()); code != protocol.ExitLaunchFailure {
		t.Errorf("exit code: got %d, want %d", code, protocol.ExitLaunchFailure)
	}
	if !strings.Contains(stderr.String(), "docker daemon") {
		t.Errorf("stderr: got %q", stderr.String())
	}
}
