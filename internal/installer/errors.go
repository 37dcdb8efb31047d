package installer

import (
	"fmt"
	"strings"
)

// Step names one git invocation of the sparse checkout.
type Step string

const (
	StepClone      Step = "clone"
	StepSparseInit Step = "sparse-checkout init"
	StepSparseSet  Step = "sparse-checkout set"
	StepCheckout   Step = "checkout"
)

// ExternalToolError is a git step that ran and exited non-zero, or could
// not be started (Err set).
type ExternalToolError struct {
	Step     Step
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("git %s: %v", e.Step, e.Err)
	}
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git %s: exit status %d", e.Step, e.ExitCode)
	}
	return fmt.Sprintf("git %s: exit status %d: %s", e.Step, e.ExitCode, msg)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// SwapError is a failure while replacing the live app directory.
// LiveRemoved reports that the previous installation is already gone.
type SwapError struct {
	Op          string
	LiveRemoved bool
	Err         error
}

func (e *SwapError) Error() string {
	if e.LiveRemoved {
		return fmt.Sprintf("%s: %v (application directory was removed and is now absent)", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SwapError) Unwrap() error { return e.Err }
