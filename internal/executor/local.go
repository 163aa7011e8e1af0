package executor

import (
	"context"
	"log"
	"os"
	"os/exec"

	"hookshim/pkg/protocol"
)

// LocalExecutor runs the run script as a child process of the shim.
type LocalExecutor struct {
	logger *log.Logger

	// forward controls whether termination signals received by the shim
	// are relayed to the child while it runs.
	forward bool
}

// NewLocalExecutor creates a local executor that forwards signals.
func NewLocalExecutor(logger *log.Logger) *LocalExecutor {
	if logger == nil {
		logger = log.New(os.Stderr, "[local-exec] ", log.LstdFlags|log.Lmsgprefix)
	}
	return &LocalExecutor{logger: logger, forward: true}
}

// Execute starts the run script with the locked file and the forwarded
// arguments, wires the invocation's streams straight through, and waits.
func (le *LocalExecutor) Execute(ctx context.Context, inv *protocol.Invocation) (int, error) {
	if err := ValidateInvocation(inv); err != nil {
		return protocol.ExitLaunchFailure, err
	}

	le.logger.Printf("local exec: %s %q (dir=%s)", inv.RunScript, inv.Argv(), inv.Dir)

	cmd := exec.CommandContext(ctx, inv.RunScript, inv.Argv()...)
	cmd.Dir = inv.Dir
	cmd.Stdin = inv.Stdin
	cmd.Stdout = inv.Stdout
	cmd.Stderr = inv.Stderr

	var relay *signalRelay
	if le.forward {
		relay = newSignalRelay(le.logger)
		defer relay.stop()
	}

	if err := cmd.Start(); err != nil {
		return launchFailure(err, "start %s", inv.RunScript)
	}

	if relay != nil {
		relay.attach(cmd.Process)
	}

	waitErr := cmd.Wait()
	code, ok := ExitCode(waitErr)
	if !ok {
		return launchFailure(waitErr, "wait %s", inv.RunScript)
	}

	le.logger.Printf("child %d exited with code %d", cmd.Process.Pid, code)
	return code, nil
}
