package process

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestBuildCommandDefaults(t *testing.T) {
	cmd := Spec{WorkDir: "/srv/app"}.BuildCommand()
	if cmd.Dir != "/srv/app" {
		t.Fatalf("dir: %q", cmd.Dir)
	}
	args := cmd.Args
	if runtime.GOOS == "windows" {
		if args[0] != "cmd" || args[1] != "/C" {
			t.Fatalf("expected cmd /C wrapper, got %v", args)
		}
		args = args[2:]
	}
	want := []string{"python", "manage.py", "runserver", "--noreload"}
	if !slices.Equal(args, want) {
		t.Fatalf("args: got %v want %v", args, want)
	}
	if cmd.SysProcAttr == nil {
		t.Fatalf("expected SysProcAttr to be set")
	}
	if cmd.Env != nil {
		t.Fatalf("expected inherited env, got %d entries", len(cmd.Env))
	}
}

func TestBuildCommandOverrides(t *testing.T) {
	s := Spec{Interpreter: "python3", Args: []string{"app.py"}, Env: []string{"FOO=bar"}}
	cmd := s.BuildCommand()
	if !slices.Contains(cmd.Args, "python3") || !slices.Contains(cmd.Args, "app.py") {
		t.Fatalf("unexpected args %v", cmd.Args)
	}
	if !slices.Contains(cmd.Env, "FOO=bar") {
		t.Fatalf("expected FOO=bar in env")
	}
}

func TestToolCommand(t *testing.T) {
	cmd := Spec{WorkDir: "/x"}.ToolCommand("manage.py", "createsuperuser", "--noinput")
	if !strings.HasSuffix(strings.Join(cmd.Args, " "), "python manage.py createsuperuser --noinput") {
		t.Fatalf("unexpected args %v", cmd.Args)
	}
	if cmd.SysProcAttr != nil {
		t.Fatalf("tool command should run in the launcher's group")
	}
}

func TestTerminateCommand(t *testing.T) {
	ctx := context.Background()
	if runtime.GOOS == "windows" {
		got := strings.Join(TerminateCommand(ctx, 42, false).Args, " ")
		if got != "taskkill /F /PID 42" {
			t.Fatalf("got %q", got)
		}
		return
	}
	if got := strings.Join(TerminateCommand(ctx, 42, false).Args, " "); got != "kill 42" {
		t.Fatalf("graceful: got %q", got)
	}
	if got := strings.Join(TerminateCommand(ctx, 42, true).Args, " "); got != "kill -9 42" {
		t.Fatalf("force: got %q", got)
	}
}

func TestCommandTerminatorStopsProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix only")
	}
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if err := (CommandTerminator{}).Terminate(context.Background(), cmd.Process.Pid, false); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected non-nil wait error after SIGTERM")
		}
		if d := DescribeExit(err); d == "exit code 0" {
			t.Fatalf("unexpected exit description %q", d)
		}
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatalf("process did not exit")
	}
}

func TestCommandTerminatorInvalidPID(t *testing.T) {
	if err := (CommandTerminator{}).Terminate(context.Background(), 0, false); err == nil {
		t.Fatalf("expected error for pid 0")
	}
}

func TestAliveAndInspect(t *testing.T) {
	if Alive(0) || Alive(-1) {
		t.Fatalf("non-positive pids are never alive")
	}
	self := os.Getpid()
	if !Alive(self) {
		t.Fatalf("expected own pid to be alive")
	}
	st := Inspect(self)
	if !st.Alive || st.PID != self {
		t.Fatalf("unexpected status %+v", st)
	}
	if !st.StartedAt.IsZero() && st.StartedAt.After(time.Now().Add(time.Minute)) {
		t.Fatalf("start time in the future: %v", st.StartedAt)
	}
	if st.StartedAt.IsZero() {
		t.Fatalf("expected a start time for the test process")
	}
	if gone := Inspect(0); gone.Alive || !gone.StartedAt.IsZero() {
		t.Fatalf("dead pid must have no start time: %+v", gone)
	}
}

func TestStatusUptime(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		st   Status
		want time.Duration
	}{
		{"alive", Status{Alive: true, StartedAt: now.Add(-90 * time.Second)}, 90 * time.Second},
		{"not alive", Status{StartedAt: now.Add(-time.Hour)}, 0},
		{"unknown start", Status{Alive: true}, 0},
		{"clock skew", Status{Alive: true, StartedAt: now.Add(time.Minute)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.st.Uptime(now); got != tt.want {
				t.Fatalf("got %v want %v", got, tt.want)
			}
		})
	}
}

func TestDescribeExit(t *testing.T) {
	if got := DescribeExit(nil); got != "exit code 0" {
		t.Fatalf("nil: %q", got)
	}
	if got := DescribeExit(errors.New("boom")); got != "boom" {
		t.Fatalf("plain: %q", got)
	}
	if runtime.GOOS == "windows" {
		return
	}
	err := exec.Command("sh", "-c", "exit 3").Run()
	if got := DescribeExit(err); got != "exit code 3" {
		t.Fatalf("exit error: %q", got)
	}
}
