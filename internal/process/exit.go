package process

import (
	"errors"
	"fmt"
	"os/exec"
)

// DescribeExit renders the result of cmd.Wait for status messages.
func DescribeExit(err error) string {
	if err == nil {
		return "exit code 0"
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if code := ee.ExitCode(); code >= 0 {
			return fmt.Sprintf("exit code %d", code)
		}
		return ee.String()
	}
	return err.Error()
}
