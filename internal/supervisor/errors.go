package supervisor

import (
	"errors"
	"fmt"
)

// ErrAppNotFound means the application directory does not exist.
var ErrAppNotFound = errors.New("application directory not found")

// StopError reports a termination command that failed. The pid has been
// cleared from the record regardless.
type StopError struct {
	PID int
	Err error
}

func (e *StopError) Error() string {
	return fmt.Sprintf("Failed to stop process PID %d. PID was manually cleared.", e.PID)
}

func (e *StopError) Unwrap() error { return e.Err }
