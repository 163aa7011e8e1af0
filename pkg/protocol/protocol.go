// Package protocol defines the contract between a hookshim binary and the
// run script it delegates to: the argument layout of the child invocation
// and the exit-code conventions every executor reports with.
package protocol

import (
	"errors"
	"io"
)

// DefaultHookName is the hook a bare hookshim binary stands in for.
const DefaultHookName = "security_reminder_hook.py"

// DefaultRunScript is the run script location relative to the hook directory.
const DefaultRunScript = "../run"

// LockedSuffix is appended to a hook name to form its payload file name.
const LockedSuffix = ".locked"

// Exit code conventions.
const (
	// ExitLaunchFailure is reported when the child could not be started.
	ExitLaunchFailure = 127

	// ExitSignalBase is added to the signal number of a signaled child.
	ExitSignalBase = 128
)

// ErrInvocation marks failures to start or wait on the child process.
var ErrInvocation = errors.New("invocation error")

// Invocation describes a single delegated call.
type Invocation struct {
	RunScript  string   // Absolute path of the run script
	LockedFile string   // Absolute path of the opaque payload, passed first
	Args       []string // Caller arguments, forwarded verbatim
	Dir        string   // Working directory for the child; empty means inherit

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Argv returns the child's argument list (excluding the program name):
// the locked file followed by the forwarded arguments.
func (inv *Invocation) Argv() []string {
	argv := make([]string, 0, len(inv.Args)+1)
	argv = append(argv, inv.LockedFile)
	return append(argv, inv.Args...)
}

// LockedFileName returns the payload file name for a hook.
func LockedFileName(hook string) string {
	return hook + LockedSuffix
}
