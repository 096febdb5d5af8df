package jupyter

import (
	"os"
	"os/signal"
	"syscall"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// signalScope holds SIGINT/SIGTERM for the lifetime of a child process.
// SIGINT is absorbed because the terminal already delivers it to the
// child's process group; SIGTERM is sent on to the child.
type signalScope struct {
	ch   chan os.Signal
	done chan struct{}
}

func trapSignals() *signalScope {
	s := &signalScope{
		ch:   make(chan os.Signal, 2),
		done: make(chan struct{}),
	}
	signal.Notify(s.ch, shutdownSignals...)
	return s
}

// forward relays trapped signals to p until Release.
func (s *signalScope) forward(p *os.Process) {
	go func() {
		for {
			select {
			case sig := <-s.ch:
				if sig == os.Interrupt {
					continue
				}
				_ = p.Signal(sig)
			case <-s.done:
				return
			}
		}
	}()
}

// Release restores default signal handling.
func (s *signalScope) Release() {
	signal.Stop(s.ch)
	close(s.done)
}

// exitStatus maps a finished process to a shell-style exit code.
func exitStatus(ps *os.ProcessState) int {
	if ps == nil {
		return 1
	}
	if code := ps.ExitCode(); code >= 0 {
		return code
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}
