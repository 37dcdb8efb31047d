// Package supervisor starts and stops the application server and keeps the
// persisted server record in step with it.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/loykin/gerdoo-launcher/internal/console"
	"github.com/loykin/gerdoo-launcher/internal/history"
	"github.com/loykin/gerdoo-launcher/internal/metrics"
	"github.com/loykin/gerdoo-launcher/internal/process"
	"github.com/loykin/gerdoo-launcher/internal/state"
)

// Saver persists the server record.
type Saver interface {
	Save(rec state.Record) error
}

type Options struct {
	Spec       process.Spec
	Queue      *console.Queue
	Terminator process.Terminator
	Store      Saver
	History    history.Sink
	Logger     *slog.Logger
}

// Result is what Start and Stop report back to the caller.
type Result struct {
	PID     int    `json:"pid,omitempty"`
	Message string `json:"message"`
}

// Supervisor owns the server record. mu is held only while reading or
// mutating rec; spawning, termination and persistence run without it.
// Every change to rec bumps gen, and a snapshot older than the last one
// written is never persisted.
type Supervisor struct {
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	rec      state.Record
	gen      uint64
	starting bool

	saveMu sync.Mutex
	saved  uint64
}

func New(rec state.Record, opts Options) *Supervisor {
	if opts.Terminator == nil {
		opts.Terminator = process.CommandTerminator{}
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	s := &Supervisor{opts: opts, log: l.With("component", "supervisor"), rec: rec.Clone()}
	metrics.SetServerRunning(rec.ServerPID != nil)
	return s
}

func (s *Supervisor) system(format string, args ...any) {
	s.opts.Queue.Send(console.Systemf(format, args...))
}

// snapshot returns a copy of rec and its generation. mu must be held.
func (s *Supervisor) snapshot() (state.Record, uint64) {
	return s.rec.Clone(), s.gen
}

func (s *Supervisor) save(rec state.Record, gen uint64) error {
	if s.opts.Store == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if gen < s.saved {
		s.log.Debug("skip stale server record", "gen", gen, "saved", s.saved)
		return nil
	}
	if err := s.opts.Store.Save(rec); err != nil {
		s.log.Error("persist server record", "error", err)
		return fmt.Errorf("save server record: %w", err)
	}
	s.saved = gen
	return nil
}

// Start spawns the server unless a pid is already recorded.
func (s *Supervisor) Start(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if pid, ok := s.rec.PID(); ok {
		s.mu.Unlock()
		return Result{PID: pid, Message: fmt.Sprintf("Server is already running with PID %d.", pid)}, nil
	}
	if s.starting {
		s.mu.Unlock()
		return Result{Message: "Server is already starting."}, nil
	}
	s.starting = true
	appPath := s.rec.AppPath
	s.mu.Unlock()

	pid, err := s.spawn(appPath)

	s.mu.Lock()
	s.starting = false
	if err != nil {
		s.mu.Unlock()
		metrics.IncServerStart(false)
		return Result{}, err
	}
	s.rec.SetPID(pid)
	s.gen++
	snap, gen := s.snapshot()
	s.mu.Unlock()

	saveErr := s.save(snap, gen)
	metrics.IncServerStart(true)
	metrics.SetServerRunning(true)
	history.Emit(ctx, s.opts.History, history.NewEvent(history.EventServerStart, pid, snap.CurrentVersion, ""))
	s.system("Server with PID %d: started.", pid)
	s.log.Info("server started", "pid", pid, "app", appPath)

	res := Result{PID: pid, Message: fmt.Sprintf("Server with PID %d: started successfully.", pid)}
	return res, saveErr
}

func (s *Supervisor) spawn(appPath string) (int, error) {
	if fi, err := os.Stat(appPath); err != nil || !fi.IsDir() {
		s.system("Application directory not found: %s", appPath)
		s.log.Warn("app directory missing", "path", appPath)
		return 0, fmt.Errorf("%w: %s", ErrAppNotFound, appPath)
	}
	s.system("Preparing server process...")

	spec := s.opts.Spec
	spec.WorkDir = appPath
	if spec.Detached {
		return s.spawnDetached(spec)
	}
	return s.spawnRelayed(spec)
}

// spawnRelayed pipes stdout and stderr through console.Relay and watches
// for exit. The parent's write ends are closed right after Start so the
// relays see EOF once the child is gone.
func (s *Supervisor) spawnRelayed(spec process.Spec) (int, error) {
	cmd := spec.BuildCommand()
	outR, outW, err := os.Pipe()
	if err != nil {
		s.system("Failed to start server: %v", err)
		return 0, fmt.Errorf("create stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		_ = outR.Close()
		_ = outW.Close()
		s.system("Failed to start server: %v", err)
		return 0, fmt.Errorf("create stderr pipe: %w", err)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{outR, outW, errR, errW} {
			_ = f.Close()
		}
		s.system("Failed to start server: %v", err)
		s.log.Error("spawn server", "error", err)
		return 0, fmt.Errorf("start server: %w", err)
	}
	_ = outW.Close()
	_ = errW.Close()
	pid := cmd.Process.Pid

	teeOut, teeErr, err := spec.Log.ProcessWriters(spec.LogName())
	if err != nil {
		s.log.Warn("server log files unavailable", "error", err)
		teeOut, teeErr = nil, nil
	}

	var relays sync.WaitGroup
	relays.Add(2)
	go s.relay(&relays, outR, console.Stdout, teeOut)
	go s.relay(&relays, errR, console.Stderr, teeErr)
	go func() {
		werr := cmd.Wait()
		relays.Wait()
		s.system("The server with PID %d: stopped with %s.", pid, process.DescribeExit(werr))
		s.log.Info("server exited", "pid", pid, "exit", process.DescribeExit(werr))
	}()
	return pid, nil
}

func (s *Supervisor) relay(wg *sync.WaitGroup, r io.ReadCloser, kind console.Kind, tee io.WriteCloser) {
	defer wg.Done()
	defer func() { _ = r.Close() }()
	var w io.Writer
	if tee != nil {
		defer func() { _ = tee.Close() }()
		w = tee
	}
	if err := console.Relay(r, kind, s.opts.Queue, w); err != nil {
		s.log.Debug("relay ended", "stream", kind.String(), "error", err)
	}
}

// spawnDetached gives the child plain log files and releases it so it
// outlives a one-shot CLI invocation.
func (s *Supervisor) spawnDetached(spec process.Spec) (int, error) {
	cmd := spec.BuildCommand()
	outF, errF, err := spec.Log.OpenProcessFiles(spec.LogName())
	if err != nil {
		s.system("Failed to start server: %v", err)
		return 0, err
	}
	defer func() { _ = outF.Close() }()
	defer func() { _ = errF.Close() }()
	cmd.Stdout = outF
	cmd.Stderr = errF
	if err := cmd.Start(); err != nil {
		s.system("Failed to start server: %v", err)
		s.log.Error("spawn server", "error", err)
		return 0, fmt.Errorf("start server: %w", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

// Stop asks the recorded server to exit and clears the pid whatever the
// outcome of the termination command.
func (s *Supervisor) Stop(ctx context.Context) (Result, error) {
	s.mu.Lock()
	pid, ok := s.rec.PID()
	s.mu.Unlock()
	if !ok {
		return Result{Message: "Server is currently down."}, nil
	}

	s.system("Sending stop signal to PID: %d", pid)
	termErr := s.opts.Terminator.Terminate(ctx, pid, false)

	s.mu.Lock()
	s.rec.ClearPID()
	s.gen++
	snap, gen := s.snapshot()
	s.mu.Unlock()
	metrics.SetServerRunning(false)
	saveErr := s.save(snap, gen)

	if termErr != nil {
		metrics.IncServerStop(false)
		s.log.Warn("stop command failed", "pid", pid, "error", termErr)
		se := &StopError{PID: pid, Err: termErr}
		s.system("%s", se.Error())
		history.Emit(ctx, s.opts.History, history.NewEvent(history.EventServerStop, pid, snap.CurrentVersion, se.Error()))
		return Result{PID: pid, Message: se.Error()}, se
	}

	metrics.IncServerStop(true)
	msg := fmt.Sprintf("Server with PID %d: stopped successfully.", pid)
	s.system("%s", msg)
	s.log.Info("server stopped", "pid", pid)
	history.Emit(ctx, s.opts.History, history.NewEvent(history.EventServerStop, pid, snap.CurrentVersion, ""))
	return Result{PID: pid, Message: msg}, saveErr
}

// ForceStopSync is the teardown path: it force-kills the recorded pid, waits
// for the command and clears the pid in memory only. Persisting is left to
// the caller (see Save).
func (s *Supervisor) ForceStopSync() {
	s.mu.Lock()
	pid, ok := s.rec.PID()
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.opts.Terminator.Terminate(context.Background(), pid, true); err != nil {
		s.log.Warn("force stop failed", "pid", pid, "error", err)
	} else {
		s.log.Info("force stopped server", "pid", pid)
	}
	s.mu.Lock()
	s.rec.ClearPID()
	s.gen++
	s.mu.Unlock()
	metrics.SetServerRunning(false)
}

// Save persists the current record.
func (s *Supervisor) Save() error {
	s.mu.Lock()
	snap, gen := s.snapshot()
	s.mu.Unlock()
	return s.save(snap, gen)
}

// UpdateVersion records a newly installed application version.
func (s *Supervisor) UpdateVersion(v string) error {
	s.mu.Lock()
	s.rec.CurrentVersion = v
	s.gen++
	snap, gen := s.snapshot()
	s.mu.Unlock()
	return s.save(snap, gen)
}

// Running reports whether a pid is recorded. Liveness is not checked.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.ServerPID != nil
}

// TryRunning is Running without blocking; ok is false when the guard is busy.
func (s *Supervisor) TryRunning() (running, ok bool) {
	if !s.mu.TryLock() {
		return false, false
	}
	defer s.mu.Unlock()
	return s.rec.ServerPID != nil, true
}

func (s *Supervisor) PID() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.PID()
}

func (s *Supervisor) Record() state.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone()
}

// Alive probes the recorded pid.
func (s *Supervisor) Alive() bool {
	pid, ok := s.PID()
	return ok && process.Alive(pid)
}
