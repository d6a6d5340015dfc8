//go:build linux

package isolate

import "syscall"

func sysProcAttr() *syscall.SysProcAttr {
	// Pdeathsig is tied to the thread that forked the child, not to the
	// harness process. The group kill in cmd.Cancel remains the primary
	// cleanup; Pdeathsig only covers the harness dying outright.
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
