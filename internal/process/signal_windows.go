//go:build windows

package process

import (
	"context"
	"os/exec"
	"strconv"
)

// TerminateCommand returns "taskkill /F /PID <pid>". Windows has no graceful
// signal for console-less processes, so both modes are forced.
func TerminateCommand(ctx context.Context, pid int, force bool) *exec.Cmd {
	_ = force
	// #nosec G204
	return exec.CommandContext(ctx, "taskkill", "/F", "/PID", strconv.Itoa(pid))
}
