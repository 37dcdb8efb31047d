// Package updater drives the check-then-install update run and exposes its
// progress for polling.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/gerdoo-launcher/internal/history"
	"github.com/loykin/gerdoo-launcher/internal/installer"
	"github.com/loykin/gerdoo-launcher/internal/manifest"
	"github.com/loykin/gerdoo-launcher/internal/metrics"
	"github.com/loykin/gerdoo-launcher/internal/version"
)

const (
	DefaultManifestURL = "https://raw.githubusercontent.com/Gerdoo/gerdoo-repo/main/update_manifest.json"
	// DefaultMinVisible keeps CheckingForUpdates on screen long enough to read.
	DefaultMinVisible = 500 * time.Millisecond
)

// ErrBusy is returned when a check or install is already in flight.
var ErrBusy = errors.New("update operation already in progress")

// Fetcher retrieves the remote manifest.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (manifest.Manifest, error)
}

// Installer replaces the application under baseDir.
type Installer interface {
	Install(ctx context.Context, baseDir string) error
}

type Options struct {
	CurrentVersion string
	ManifestURL    string
	BaseDir        string
	Fetcher        Fetcher
	Installer      Installer
	// MinVisible is the pause before fetching; zero means DefaultMinVisible
	// and a negative value disables it.
	MinVisible time.Duration
	History    history.Sink
	Logger     *slog.Logger
	// OnInstalled runs after a successful install with the new version.
	OnInstalled func(version string) error
}

// Snapshot is a consistent copy of the engine state.
type Snapshot struct {
	Status          Status             `json:"status"`
	Complete        bool               `json:"complete"`
	Success         bool               `json:"success"`
	UpdateAvailable bool               `json:"update_available"`
	Manifest        *manifest.Manifest `json:"manifest,omitempty"`
	Error           string             `json:"error,omitempty"`
	CurrentVersion  string             `json:"current_version"`
}

// Engine runs update checks and installs. All state is guarded by mu, which
// is only held to read or publish a transition; network and git work run
// without it so pollers keep seeing progress.
type Engine struct {
	opts Options
	log  *slog.Logger

	mu        sync.Mutex
	status    Status
	complete  bool
	success   bool
	available bool
	manifest  *manifest.Manifest
	errMsg    string
	current   string
	busy      bool
}

func New(opts Options) *Engine {
	if opts.ManifestURL == "" {
		opts.ManifestURL = DefaultManifestURL
	}
	if opts.Fetcher == nil {
		opts.Fetcher = manifest.NewClient()
	}
	if opts.MinVisible == 0 {
		opts.MinVisible = DefaultMinVisible
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Engine{
		opts:    opts,
		log:     l.With("component", "updater"),
		status:  Status{State: Checking},
		current: opts.CurrentVersion,
	}
}

func (e *Engine) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrBusy
	}
	e.busy = true
	return nil
}

func (e *Engine) release() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

func (e *Engine) set(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

func (e *Engine) fail(msg string) {
	e.mu.Lock()
	e.status = Status{State: Errored, Message: msg}
	e.errMsg = msg
	e.complete = true
	e.mu.Unlock()
}

// CheckForUpdate fetches the manifest and compares it against the current
// version. Fetch failures are reported through the status and returned.
func (e *Engine) CheckForUpdate(ctx context.Context) error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()
	e.status = Status{State: CheckingForUpdates}
	e.complete, e.success, e.available, e.manifest, e.errMsg = false, false, false, nil, ""
	current := e.current
	e.mu.Unlock()

	if e.opts.MinVisible > 0 {
		select {
		case <-time.After(e.opts.MinVisible):
		case <-ctx.Done():
			e.fail(ctx.Err().Error())
			metrics.IncUpdateCheck(metrics.ResultFailure)
			return ctx.Err()
		}
	}

	m, err := e.opts.Fetcher.Fetch(ctx, e.opts.ManifestURL)
	if err != nil {
		e.log.Warn("update check failed", "url", e.opts.ManifestURL, "error", err)
		e.fail(err.Error())
		metrics.IncUpdateCheck(metrics.ResultFailure)
		return err
	}

	if version.IsNewer(current, m.Version) {
		e.log.Info("update available", "current", current, "remote", m.Version)
		e.mu.Lock()
		e.manifest = &m
		e.available = true
		e.status = Status{State: UpdateAvailable, Version: m.Version}
		e.mu.Unlock()
		metrics.IncUpdateCheck(metrics.ResultAvailable)
		return nil
	}

	e.log.Info("no update", "current", current, "remote", m.Version)
	e.mu.Lock()
	e.status = Status{State: NoUpdate}
	e.complete = true
	e.mu.Unlock()
	metrics.IncUpdateCheck(metrics.ResultUpToDate)
	return nil
}

// DownloadAndInstall installs the manifest found by the last check. Calling
// it without an available update is a caller error and is not guarded.
func (e *Engine) DownloadAndInstall(ctx context.Context) error {
	if err := e.acquire(); err != nil {
		return err
	}
	defer e.release()

	e.mu.Lock()
	e.status = Status{State: Downloading, Progress: 0}
	var target string
	if e.manifest != nil {
		target = e.manifest.Version
	}
	e.mu.Unlock()

	if e.opts.Installer == nil {
		err := errors.New("no installer configured")
		e.fail(err.Error())
		return err
	}

	started := time.Now()
	err := e.opts.Installer.Install(ctx, e.opts.BaseDir)
	metrics.ObserveInstallDuration(time.Since(started).Seconds())
	if err != nil {
		msg := failureMessage(err)
		e.log.Error("update install failed", "version", target, "error", err)
		e.fail(msg)
		metrics.IncUpdateInstall(false)
		history.Emit(ctx, e.opts.History, history.NewEvent(history.EventUpdateFailed, 0, target, err.Error()))
		return err
	}

	e.set(Status{State: Downloading, Progress: 0.9})
	e.set(Status{State: Installing})

	var cbErr error
	if e.opts.OnInstalled != nil && target != "" {
		cbErr = e.opts.OnInstalled(target)
		if cbErr != nil {
			e.log.Warn("record installed version", "version", target, "error", cbErr)
		}
	}

	e.mu.Lock()
	e.status = Status{State: Complete}
	e.success = true
	e.complete = true
	e.available = false
	if target != "" {
		e.current = target
	}
	e.mu.Unlock()

	metrics.IncUpdateInstall(true)
	history.Emit(ctx, e.opts.History, history.NewEvent(history.EventUpdateInstalled, 0, target, ""))
	e.log.Info("update installed", "version", target)
	return cbErr
}

func failureMessage(err error) string {
	var te *installer.ExternalToolError
	if errors.As(err, &te) {
		return fmt.Sprintf("Download failed (Git error): %v", err)
	}
	return fmt.Sprintf("Installation failed: %v", err)
}

// Run checks for an update and installs it when one is available.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.CheckForUpdate(ctx); err != nil {
		return err
	}
	if !e.UpdateAvailable() {
		return nil
	}
	return e.DownloadAndInstall(ctx)
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		Status:          e.status,
		Complete:        e.complete,
		Success:         e.success,
		UpdateAvailable: e.available,
		Error:           e.errMsg,
		CurrentVersion:  e.current,
	}
	if e.manifest != nil {
		m := *e.manifest
		s.Manifest = &m
	}
	return s
}

// Snapshot blocks until the guard is free.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// TrySnapshot never blocks; ok is false when the guard is held and the
// caller should retry on its next tick.
func (e *Engine) TrySnapshot() (Snapshot, bool) {
	if !e.mu.TryLock() {
		return Snapshot{}, false
	}
	defer e.mu.Unlock()
	return e.snapshotLocked(), true
}

func (e *Engine) Status() Status { return e.Snapshot().Status }

func (e *Engine) UpdateAvailable() bool { return e.Snapshot().UpdateAvailable }

func (e *Engine) Complete() bool { return e.Snapshot().Complete }
