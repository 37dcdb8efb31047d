//go:build !windows

package process

import "os/exec"

// hostCommand runs the interpreter directly on Unix systems.
func hostCommand(interp string, args []string) *exec.Cmd {
	// #nosec G204
	return exec.Command(interp, args...)
}
