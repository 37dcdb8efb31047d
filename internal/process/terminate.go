package process

import (
	"context"
	"fmt"
	"strings"
)

// Terminator delivers a termination request to a process by PID.
type Terminator interface {
	Terminate(ctx context.Context, pid int, force bool) error
}

// CommandTerminator runs the platform's kill/taskkill command.
type CommandTerminator struct{}

func (CommandTerminator) Terminate(ctx context.Context, pid int, force bool) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	cmd := TerminateCommand(ctx, pid, force)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", strings.Join(cmd.Args, " "), err)
		}
		return fmt.Errorf("%s: %w: %s", strings.Join(cmd.Args, " "), err, msg)
	}
	return nil
}
