package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loykin/gerdoo-launcher/internal/console"
	"github.com/loykin/gerdoo-launcher/internal/supervisor"
	"github.com/loykin/gerdoo-launcher/internal/updater"
)

type fakeServer struct {
	mu       sync.Mutex
	running  bool
	busy     bool
	starts   int
	stops    int
	forced   int
	saved    int
	startErr error
}

func (f *fakeServer) Start(context.Context) (supervisor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return supervisor.Result{}, f.startErr
	}
	f.running = true
	return supervisor.Result{PID: 7}, nil
}

func (f *fakeServer) Stop(context.Context) (supervisor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.running = false
	return supervisor.Result{}, nil
}

func (f *fakeServer) TryRunning() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false, false
	}
	return f.running, true
}

func (f *fakeServer) ForceStopSync() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forced++
	f.running = false
}

func (f *fakeServer) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	return nil
}

type fakeUpdater struct {
	snap updater.Snapshot
	busy bool
	runs int
}

func (f *fakeUpdater) Run(context.Context) error { f.runs++; return nil }
func (f *fakeUpdater) TrySnapshot() (updater.Snapshot, bool) {
	if f.busy {
		return updater.Snapshot{}, false
	}
	return f.snap, true
}

func newModel(srv *fakeServer, upd *fakeUpdater, q *console.Queue) Model {
	m := New(Options{Server: srv, Updater: upd, Queue: q, ServerURL: "http://127.0.0.1:8000", Version: "0.1.0"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTickDrainsQueue(t *testing.T) {
	q := console.NewQueue(10)
	m := newModel(&fakeServer{}, &fakeUpdater{}, q)
	q.Send(console.New(console.Stdout, "booting"))
	q.Send(console.Systemf("Server with PID %d: started.", 7))

	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("tick must schedule the next tick")
	}
	m = next.(Model)
	if q.Len() != 0 {
		t.Fatalf("queue not drained")
	}
	if len(m.lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(m.lines))
	}
	v := m.View()
	if !strings.Contains(v, "booting") || !strings.Contains(v, "Server with PID 7: started.") {
		t.Fatalf("view missing console lines:\n%s", v)
	}
}

func TestMaxLinesTrimsOldest(t *testing.T) {
	q := console.NewQueue(10)
	m := New(Options{Server: &fakeServer{}, Updater: &fakeUpdater{}, Queue: q, MaxLines: 3})
	for i := 0; i < 5; i++ {
		q.Send(console.Systemf("line %d", i))
	}
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if len(m.lines) != 3 || m.lines[0].Text != "line 2" {
		t.Fatalf("unexpected lines %+v", m.lines)
	}
}

func TestBusyGuardsKeepLastState(t *testing.T) {
	srv := &fakeServer{running: true}
	upd := &fakeUpdater{snap: updater.Snapshot{Status: updater.Status{State: updater.UpdateAvailable, Version: "0.2.0"}}}
	m := newModel(srv, upd, console.NewQueue(1))
	next, _ := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if !m.running || m.snap.Status.Version != "0.2.0" {
		t.Fatalf("state not polled: running=%v snap=%+v", m.running, m.snap)
	}

	srv.busy, upd.busy = true, true
	srv.running = false
	next, _ = m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if !m.running {
		t.Fatalf("busy supervisor must not change cached state")
	}
	if !strings.Contains(m.View(), "Update available: v0.2.0") {
		t.Fatalf("view lost updater status:\n%s", m.View())
	}
}

func TestStartKeyRunsCommand(t *testing.T) {
	srv := &fakeServer{}
	m := newModel(srv, &fakeUpdater{}, console.NewQueue(1))
	next, cmd := m.Update(key("s"))
	m = next.(Model)
	if cmd == nil || !m.pending {
		t.Fatalf("expected start command")
	}
	msg := cmd()
	if srv.starts != 1 {
		t.Fatalf("start not called")
	}
	next, _ = m.Update(msg)
	m = next.(Model)
	if m.pending {
		t.Fatalf("pending not cleared")
	}

	// ignored while a start is still pending
	m.pending = true
	if _, cmd := m.Update(key("s")); cmd != nil {
		t.Fatalf("start must not be issued twice")
	}
}

func TestStartErrorShowsNotice(t *testing.T) {
	m := newModel(&fakeServer{}, &fakeUpdater{}, console.NewQueue(1))
	next, _ := m.Update(actionMsg{err: errors.New("save server record: disk full")})
	m = next.(Model)
	if !strings.Contains(m.View(), "disk full") {
		t.Fatalf("notice missing:\n%s", m.View())
	}

	next, _ = m.Update(actionMsg{err: supervisor.ErrAppNotFound})
	m = next.(Model)
	if m.notice != "" {
		t.Fatalf("app-not-found is reported on the console, got notice %q", m.notice)
	}
}

func TestStopKeyOnlyWhenRunning(t *testing.T) {
	srv := &fakeServer{}
	m := newModel(srv, &fakeUpdater{}, console.NewQueue(1))
	if _, cmd := m.Update(key("x")); cmd != nil {
		t.Fatalf("stop must be ignored while stopped")
	}
	m.running = true
	_, cmd := m.Update(key("x"))
	if cmd == nil {
		t.Fatalf("expected stop command")
	}
	cmd()
	if srv.stops != 1 {
		t.Fatalf("stop not called")
	}
}

func TestUpdateKeyWaitsForCompletion(t *testing.T) {
	upd := &fakeUpdater{}
	m := newModel(&fakeServer{}, upd, console.NewQueue(1))
	m.hasSnap, m.snap = true, updater.Snapshot{Complete: false}
	if _, cmd := m.Update(key("u")); cmd != nil {
		t.Fatalf("update must not restart mid-run")
	}
	m.snap.Complete = true
	_, cmd := m.Update(key("u"))
	if cmd == nil {
		t.Fatalf("expected update command")
	}
	cmd()
	if upd.runs != 1 {
		t.Fatalf("run not called")
	}
}

func TestQuitForceStopsAndSaves(t *testing.T) {
	srv := &fakeServer{running: true}
	m := newModel(srv, &fakeUpdater{}, console.NewQueue(1))
	next, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if srv.forced != 1 || srv.saved != 1 {
		t.Fatalf("forced=%d saved=%d", srv.forced, srv.saved)
	}
	if next.(Model).View() != "" {
		t.Fatalf("view after quit should be empty")
	}
}

func TestHeaderShowsURLWhenRunning(t *testing.T) {
	m := newModel(&fakeServer{}, &fakeUpdater{}, console.NewQueue(1))
	if strings.Contains(m.View(), "127.0.0.1:8000") {
		t.Fatalf("url shown while stopped")
	}
	m.running = true
	if !strings.Contains(m.View(), "http://127.0.0.1:8000") {
		t.Fatalf("url missing:\n%s", m.View())
	}
}
