//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr sets platform-specific attributes for Unix-like systems.
// If spec.Detached is true, we create a new session (setsid) so the child is
// detached from the controlling terminal and survives launcher exit.
// Otherwise, we place it in a new process group so terminal signals aimed at
// the launcher are not delivered to the server.
func configureSysProcAttr(cmd *exec.Cmd, spec Spec) {
	attrs := &syscall.SysProcAttr{}
	if spec.Detached {
		attrs.Setsid = true
	} else {
		attrs.Setpgid = true
	}
	cmd.SysProcAttr = attrs
}
