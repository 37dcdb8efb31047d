// Package ui is the terminal front end: it issues start, stop and update
// commands and renders the console queue and updater status on a fixed tick.
package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/loykin/gerdoo-launcher/internal/console"
	"github.com/loykin/gerdoo-launcher/internal/supervisor"
	"github.com/loykin/gerdoo-launcher/internal/updater"
)

const (
	DefaultTick     = 100 * time.Millisecond
	DefaultMaxLines = 1000

	headerHeight = 4
	footerHeight = 2
)

// Server is the supervisor surface the UI drives.
type Server interface {
	Start(ctx context.Context) (supervisor.Result, error)
	Stop(ctx context.Context) (supervisor.Result, error)
	TryRunning() (running, ok bool)
	ForceStopSync()
	Save() error
}

// Updater is the update engine surface the UI polls.
type Updater interface {
	Run(ctx context.Context) error
	TrySnapshot() (updater.Snapshot, bool)
}

type Options struct {
	Server    Server
	Updater   Updater
	Queue     *console.Queue
	ServerURL string
	Version   string
	Tick      time.Duration
	MaxLines  int
	// Context bounds the background commands; defaults to Background.
	Context context.Context
}

type tickMsg time.Time

type actionMsg struct {
	res supervisor.Result
	err error
}

type updateDoneMsg struct{ err error }

// Model is the bubbletea model. It only ever try-locks the supervisor and
// the updater, so a busy guard means a stale frame rather than a stall.
type Model struct {
	opts Options

	viewport viewport.Model
	ready    bool
	width    int

	lines   []console.Message
	running bool
	snap    updater.Snapshot
	hasSnap bool
	pending bool
	notice  string

	quitting bool
}

func New(opts Options) Model {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	return Model{opts: opts}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) runUpdate() tea.Cmd {
	ctx, upd := m.opts.Context, m.opts.Updater
	return func() tea.Msg { return updateDoneMsg{err: upd.Run(ctx)} }
}

func (m Model) startServer() tea.Cmd {
	ctx, srv := m.opts.Context, m.opts.Server
	return func() tea.Msg {
		res, err := srv.Start(ctx)
		return actionMsg{res: res, err: err}
	}
}

func (m Model) stopServer() tea.Cmd {
	ctx, srv := m.opts.Context, m.opts.Server
	return func() tea.Msg {
		res, err := srv.Stop(ctx)
		return actionMsg{res: res, err: err}
	}
}

// Init starts the render tick and the update run.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.runUpdate())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		h := msg.Height - headerHeight - footerHeight
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, h)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = h
		}
		m.refresh()
		return m, nil

	case tickMsg:
		m.poll()
		return m, m.tick()

	case actionMsg:
		m.pending = false
		m.notice = ""
		if msg.err != nil {
			var se *supervisor.StopError
			// these already reached the console through the queue
			if !errors.Is(msg.err, supervisor.ErrAppNotFound) && !errors.As(msg.err, &se) {
				m.notice = msg.err.Error()
			}
		}
		return m, nil

	case updateDoneMsg:
		if msg.err != nil && errors.Is(msg.err, updater.ErrBusy) {
			m.notice = msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.shutdown()
		m.quitting = true
		return m, tea.Quit
	case "s":
		if m.pending || m.running {
			return m, nil
		}
		m.pending = true
		return m, m.startServer()
	case "x":
		if m.pending || !m.running {
			return m, nil
		}
		m.pending = true
		return m, m.stopServer()
	case "u":
		if m.hasSnap && !m.snap.Complete {
			return m, nil
		}
		return m, m.runUpdate()
	}
	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// shutdown force-stops the server and persists the cleared record.
func (m *Model) shutdown() {
	m.opts.Server.ForceStopSync()
	if err := m.opts.Server.Save(); err != nil {
		m.notice = err.Error()
	}
}

// poll drains the console queue and refreshes the cached server and updater
// state when their guards are free.
func (m *Model) poll() {
	if msgs := m.opts.Queue.Drain(); len(msgs) > 0 {
		m.lines = append(m.lines, msgs...)
		if over := len(m.lines) - m.opts.MaxLines; over > 0 {
			m.lines = append(m.lines[:0:0], m.lines[over:]...)
		}
		m.refresh()
	}
	if running, ok := m.opts.Server.TryRunning(); ok {
		m.running = running
	}
	if snap, ok := m.opts.Updater.TrySnapshot(); ok {
		m.snap, m.hasSnap = snap, true
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.consoleText())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) consoleText() string {
	var b strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(styleFor(l.Kind).Render(l.Line()))
	}
	return b.String()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteByte('\n')
	if m.ready {
		b.WriteString(m.viewport.View())
	} else {
		b.WriteString(m.consoleText())
	}
	b.WriteByte('\n')
	b.WriteString(m.footer())
	return b.String()
}

func (m Model) header() string {
	title := titleStyle.Render("Gerdoo Launcher")
	if m.opts.Version != "" {
		title += " " + dimStyle.Render("v"+m.opts.Version)
	}
	server := stoppedStyle.Render("Server: stopped")
	if m.running {
		server = runningStyle.Render("Server: running") + "  " + urlStyle.Render(m.opts.ServerURL)
	}
	upd := dimStyle.Render(updater.Status{State: updater.Checking}.String())
	if m.hasSnap {
		upd = updateStyle(m.snap.Status.State).Render(m.snap.Status.String())
	}
	return strings.Join([]string{title, server, upd}, "\n")
}

func (m Model) footer() string {
	help := dimStyle.Render("s start  x stop  u check updates  q quit")
	if m.notice != "" {
		return errorStyle.Render(m.notice) + "\n" + help
	}
	return "\n" + help
}
