//go:build !unix

package isolate

import (
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr { return nil }

func killGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}

// exitStatus records the raw exit code; there is no signal information here.
func exitStatus(state *os.ProcessState) Exit {
	return Exit{Code: state.ExitCode()}
}
