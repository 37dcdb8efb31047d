package installer

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Runner executes one external tool invocation in dir. A non-zero exit is
// reported through exitCode with err == nil; err is set only when the tool
// could not be run at all.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (exitCode int, stderr []byte, err error)
}

// GitRunner runs the git binary found on PATH (or Path when set).
type GitRunner struct {
	Path string
}

func (g GitRunner) Run(ctx context.Context, dir string, args ...string) (int, []byte, error) {
	bin := g.Path
	if bin == "" {
		bin = "git"
	}
	// #nosec G204
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), stderr.Bytes(), nil
	}
	if err != nil {
		return -1, stderr.Bytes(), err
	}
	return 0, stderr.Bytes(), nil
}
