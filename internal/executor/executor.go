// Package executor implements the strategies a hookshim uses to run the
// delegated run script: Local (a child process on this host) and Docker
// (an exec inside an existing container that shares the hook directory).
package executor

import (
	"context"
	"fmt"

	"hookshim/pkg/protocol"
)

// Executor is the interface for delegation strategies.
type Executor interface {
	// Execute runs inv to completion and returns the exit code the shim
	// should terminate with. A non-nil error wraps protocol.ErrInvocation
	// and is always accompanied by protocol.ExitLaunchFailure.
	Execute(ctx context.Context, inv *protocol.Invocation) (int, error)
}

// ValidateInvocation checks the fields every executor relies on.
func ValidateInvocation(inv *protocol.Invocation) error {
	if inv == nil {
		return fmt.Errorf("nil invocation: %w", protocol.ErrInvocation)
	}
	if inv.RunScript == "" {
		return fmt.Errorf("run script path is empty: %w", protocol.ErrInvocation)
	}
	if inv.LockedFile == "" {
		return fmt.Errorf("locked file path is empty: %w", protocol.ErrInvocation)
	}
	return nil
}

// launchFailure wraps err as an invocation error and pairs it with the
// launch failure exit code.
func launchFailure(err error, format string, args ...any) (int, error) {
	return protocol.ExitLaunchFailure, fmt.Errorf("%s: %w: %w", fmt.Sprintf(format, args...), protocol.ErrInvocation, err)
}
