package process

import (
	"os"
	"os/exec"

	"github.com/loykin/gerdoo-launcher/internal/logger"
)

const (
	// DefaultName labels the managed server in logs and log file names.
	DefaultName = "server"
	// DefaultInterpreter runs the management entry point.
	DefaultInterpreter = "python"
)

// DefaultArgs starts the development server without its auto-reloader, so the
// spawned PID is the server itself rather than a reloader parent.
var DefaultArgs = []string{"manage.py", "runserver", "--noreload"}

// Spec describes how the managed server is launched.
type Spec struct {
	Name        string        `json:"name"`
	Interpreter string        `json:"interpreter"`
	Args        []string      `json:"args"`
	WorkDir     string        `json:"work_dir"`
	Env         []string      `json:"env"`      // extra KEY=VALUE pairs on top of os.Environ
	Detached    bool          `json:"detached"` // write output to files instead of pipes
	Log         logger.Config `json:"log"`
}

// LogName is Name or DefaultName; it names the server's log files.
func (s Spec) LogName() string {
	if s.Name == "" {
		return DefaultName
	}
	return s.Name
}

// BuildCommand constructs the *exec.Cmd for the server. The same logical
// command is wrapped in the host shell on Windows and run directly elsewhere.
// The child gets its own session or process group so it is not torn down
// together with the launcher.
func (s Spec) BuildCommand() *exec.Cmd {
	interp := s.Interpreter
	if interp == "" {
		interp = DefaultInterpreter
	}
	args := s.Args
	if args == nil {
		args = DefaultArgs
	}
	cmd := hostCommand(interp, args)
	if s.WorkDir != "" {
		cmd.Dir = s.WorkDir
	}
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	configureSysProcAttr(cmd, s)
	return cmd
}

// ToolCommand builds a one-shot command (for example createsuperuser) that
// runs through the same interpreter in the app directory.
func (s Spec) ToolCommand(args ...string) *exec.Cmd {
	interp := s.Interpreter
	if interp == "" {
		interp = DefaultInterpreter
	}
	cmd := hostCommand(interp, args)
	if s.WorkDir != "" {
		cmd.Dir = s.WorkDir
	}
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	return cmd
}
