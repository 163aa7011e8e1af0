package executor

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

// forwardedSignals are relayed to the child while it runs.
var forwardedSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGHUP,
	syscall.SIGQUIT,
}

// signalRelay relays termination signals received by this process to the
// child. It is armed before the child starts so that a signal arriving
// during startup is held and delivered once the child is attached, instead
// of terminating the shim. The shim itself keeps waiting and reports the
// child's resulting status.
type signalRelay struct {
	sigCh  chan os.Signal
	procCh chan *os.Process
	done   chan struct{}
	logger *log.Logger
}

func newSignalRelay(logger *log.Logger) *signalRelay {
	r := &signalRelay{
		sigCh:  make(chan os.Signal, len(forwardedSignals)),
		procCh: make(chan *os.Process, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
	signal.Notify(r.sigCh, forwardedSignals...)
	go r.loop()
	return r
}

// attach starts delivering signals to proc.
func (r *signalRelay) attach(proc *os.Process) {
	r.procCh <- proc
}

// stop disarms the relay. Signals received afterwards get default handling.
func (r *signalRelay) stop() {
	signal.Stop(r.sigCh)
	close(r.done)
}

func (r *signalRelay) loop() {
	var proc *os.Process
	select {
	case proc = <-r.procCh:
	case <-r.done:
		return
	}

	for {
		select {
		case sig := <-r.sigCh:
			r.logger.Printf("forwarding %v to child %d", sig, proc.Pid)
			if err := proc.Signal(sig); err != nil {
				r.logger.Printf("forward %v: %v", sig, err)
			}
		case <-r.done:
			return
		}
	}
}
