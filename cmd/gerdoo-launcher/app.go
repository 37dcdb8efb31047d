package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/loykin/gerdoo-launcher/internal/config"
	"github.com/loykin/gerdoo-launcher/internal/console"
	"github.com/loykin/gerdoo-launcher/internal/history"
	"github.com/loykin/gerdoo-launcher/internal/history/factory"
	"github.com/loykin/gerdoo-launcher/internal/installer"
	"github.com/loykin/gerdoo-launcher/internal/logger"
	"github.com/loykin/gerdoo-launcher/internal/server"
	"github.com/loykin/gerdoo-launcher/internal/state"
	"github.com/loykin/gerdoo-launcher/internal/supervisor"
	"github.com/loykin/gerdoo-launcher/internal/updater"
)

// launcher bundles what every command needs: settings, logger, persisted
// record, history sink and the supervisor built on them.
type launcher struct {
	cfg      *config.Config
	log      *slog.Logger
	logClose io.Closer
	store    *state.Store
	sink     history.Sink
	sup      *supervisor.Supervisor
}

// openOptions selects how the server is attached for a command.
type openOptions struct {
	// Detached writes server output to files (one-shot CLI commands).
	Detached bool
	// Queue receives console messages; nil discards them.
	Queue *console.Queue
	// LogOutput receives launcher logs when no log directory is set;
	// defaults to stderr.
	LogOutput io.Writer
}

var cliOpen = openOptions{Detached: true}

// openLauncher loads settings and state and builds the supervisor.
func openLauncher(gf GlobalFlags, o openOptions) (*launcher, error) {
	cfg, err := config.Load(gf.ConfigPath)
	if err != nil {
		return nil, err
	}
	if o.LogOutput == nil {
		o.LogOutput = os.Stderr
	}
	log, closer := logger.New(cfg.Log, o.LogOutput)
	slog.SetDefault(log)

	store := state.Open(cfg.StatePath, cfg.AppPath())
	rec, err := store.Load()
	if err != nil {
		var pe *state.ParseError
		if errors.As(err, &pe) {
			log.Warn("launcher state unreadable, using defaults", "path", pe.Path, "error", pe.Err)
			rec = state.Default(cfg.AppPath())
		} else {
			log.Warn("load launcher state", "error", err)
			if rec.AppPath == "" {
				rec = state.Default(cfg.AppPath())
			}
		}
	}

	var sink history.Sink
	if cfg.History.DSN != "" {
		s, err := factory.NewSinkFromDSN(cfg.History.DSN)
		if err != nil {
			log.Warn("history disabled", "dsn", cfg.History.DSN, "error", err)
		} else {
			sink = s
		}
	}

	spec, err := cfg.ProcessSpec(o.Detached)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	sup := supervisor.New(rec, supervisor.Options{
		Spec:    spec,
		Queue:   o.Queue,
		Store:   store,
		History: sink,
		Logger:  log,
	})
	return &launcher{cfg: cfg, log: log, logClose: closer, store: store, sink: sink, sup: sup}, nil
}

func (l *launcher) installer() *installer.Installer {
	in := installer.New(l.cfg.RepoURL, l.cfg.AppSubdir)
	in.Logger = l.log
	return in
}

// engine builds an update engine that records installed versions through the
// supervisor, the single writer of the state file.
func (l *launcher) engine() *updater.Engine {
	return updater.New(updater.Options{
		CurrentVersion: l.sup.Record().CurrentVersion,
		ManifestURL:    l.cfg.ManifestURL,
		BaseDir:        l.cfg.BaseDir,
		Installer:      l.installer(),
		MinVisible:     l.cfg.Update.MinVisible,
		History:        l.sink,
		Logger:         l.log,
		OnInstalled:    l.sup.UpdateVersion,
	})
}

// historyReader returns the sink when it can list events.
func (l *launcher) historyReader() (server.HistoryReader, bool) {
	r, ok := l.sink.(server.HistoryReader)
	return r, ok
}

func (l *launcher) Close() {
	if c, ok := l.sink.(io.Closer); ok {
		_ = c.Close()
	}
	_ = l.logClose.Close()
}
