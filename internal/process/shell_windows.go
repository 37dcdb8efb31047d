//go:build windows

package process

import "os/exec"

// hostCommand routes the interpreter through cmd /C so PATH lookup and
// python launcher aliases behave as they do in a console.
func hostCommand(interp string, args []string) *exec.Cmd {
	full := append([]string{"/C", interp}, args...)
	// #nosec G204
	return exec.Command("cmd", full...)
}
