package executor

import (
	"errors"
	"os/exec"
	"syscall"

	"hookshim/pkg/protocol"
)

// ExitCode converts the result of exec.Cmd.Wait into a shim exit code.
// Normal exits keep their status, signaled children map to 128+signal.
// ok is false when err is not an exit status at all.
func ExitCode(err error) (code int, ok bool) {
	if err == nil {
		return 0, true
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return protocol.ExitLaunchFailure, false
	}

	if ws, isWait := exitErr.Sys().(syscall.WaitStatus); isWait && ws.Signaled() {
		return protocol.ExitSignalBase + int(ws.Signal()), true
	}

	if code := exitErr.ExitCode(); code >= 0 {
		return code, true
	}
	return protocol.ExitLaunchFailure, false
}
