//go:build unix

package isolate

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// killGroup kills the child and everything it spawned.
func killGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	if err := unix.Kill(-p.Pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return p.Kill()
	}
	return nil
}

// exitStatus maps a signal-terminated child to 128+signo, like a shell does.
func exitStatus(state *os.ProcessState) Exit {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return Exit{Code: state.ExitCode()}
	}
	sig := ws.Signal()
	return Exit{
		Code:     128 + int(sig),
		Signaled: true,
		Signal:   unix.SignalName(sig),
	}
}
