//go:build !windows

package process

import (
	"context"
	"os/exec"
	"strconv"
)

// TerminateCommand returns the external command that asks pid to exit:
// "kill <pid>" (SIGTERM), or "kill -9 <pid>" when force is set.
func TerminateCommand(ctx context.Context, pid int, force bool) *exec.Cmd {
	if force {
		// #nosec G204
		return exec.CommandContext(ctx, "kill", "-9", strconv.Itoa(pid))
	}
	// #nosec G204
	return exec.CommandContext(ctx, "kill", strconv.Itoa(pid))
}
