package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/gerdoo-launcher/internal/history"
	"github.com/loykin/gerdoo-launcher/internal/metrics"
	"github.com/loykin/gerdoo-launcher/internal/response"
	"github.com/loykin/gerdoo-launcher/internal/state"
	"github.com/loykin/gerdoo-launcher/internal/supervisor"
	"github.com/loykin/gerdoo-launcher/internal/updater"
)

// ServerController is the part of the supervisor the API drives.
type ServerController interface {
	Start(ctx context.Context) (supervisor.Result, error)
	Stop(ctx context.Context) (supervisor.Result, error)
	Record() state.Record
	Alive() bool
}

// UpdateController is the part of the update engine the API drives.
type UpdateController interface {
	CheckForUpdate(ctx context.Context) error
	DownloadAndInstall(ctx context.Context) error
	Snapshot() updater.Snapshot
}

// HistoryReader lists recent launcher events.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Event, error)
}

// Router provides embeddable HTTP handlers for the launcher.
// Endpoints:
//
//	POST {basePath}/server/start
//	POST {basePath}/server/stop
//	GET  {basePath}/server/status
//	POST {basePath}/update/check
//	POST {basePath}/update/install   (runs in the background; poll /update/status)
//	GET  {basePath}/update/status
//	GET  {basePath}/history?limit=n
//	GET  /metrics
//
// Every body except /metrics is a response.Response.
type Router struct {
	srv      ServerController
	upd      UpdateController
	hist     HistoryReader
	sampler  *metrics.ProcessMetricsCollector
	basePath string
	// bg is the parent context of background installs.
	bg context.Context
}

type Option func(*Router)

func WithHistory(h HistoryReader) Option { return func(r *Router) { r.hist = h } }

func WithProcessMetrics(c *metrics.ProcessMetricsCollector) Option {
	return func(r *Router) { r.sampler = c }
}

func WithBackground(ctx context.Context) Option { return func(r *Router) { r.bg = ctx } }

// NewRouter constructs a Router. Example basePath "/api" gives /api/server/start.
func NewRouter(srv ServerController, upd UpdateController, basePath string, opts ...Option) *Router {
	r := &Router{srv: srv, upd: upd, basePath: sanitizeBase(basePath), bg: context.Background()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/server/start", r.handleStart)
	group.POST("/server/stop", r.handleStop)
	group.GET("/server/status", r.handleStatus)
	group.POST("/update/check", r.handleCheck)
	group.POST("/update/install", r.handleInstall)
	group.GET("/update/status", r.handleUpdateStatus)
	group.GET("/history", r.handleHistory)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, r *Router) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "addr", addr, "error", err)
		}
	}()
	return server
}

// --- Handlers ---

func (r *Router) handleStart(c *gin.Context) {
	res, err := r.srv.Start(c.Request.Context())
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, supervisor.ErrAppNotFound) {
			code = http.StatusConflict
		}
		if res.PID > 0 {
			// started, but the record could not be saved
			writeJSON(c, http.StatusOK, response.Succeed(res, res.Message+" ("+err.Error()+")"))
			return
		}
		writeJSON(c, code, response.Fail(nil, err.Error()))
		return
	}
	writeJSON(c, http.StatusOK, response.Succeed(res, res.Message))
}

func (r *Router) handleStop(c *gin.Context) {
	res, err := r.srv.Stop(c.Request.Context())
	if err != nil {
		var se *supervisor.StopError
		if errors.As(err, &se) {
			writeJSON(c, http.StatusOK, response.Fail(res, se.Error()))
			return
		}
		writeJSON(c, http.StatusInternalServerError, response.Fail(res, err.Error()))
		return
	}
	writeJSON(c, http.StatusOK, response.Succeed(res, res.Message))
}

type statusData struct {
	Running        bool                    `json:"running"`
	PID            int                     `json:"pid,omitempty"`
	Alive          bool                    `json:"alive"`
	CurrentVersion string                  `json:"current_version"`
	AppPath        string                  `json:"app_path"`
	Resources      *metrics.ProcessMetrics `json:"resources,omitempty"`
}

func (r *Router) handleStatus(c *gin.Context) {
	rec := r.srv.Record()
	pid, running := rec.PID()
	d := statusData{
		Running:        running,
		PID:            pid,
		CurrentVersion: rec.CurrentVersion,
		AppPath:        rec.AppPath,
	}
	if running {
		d.Alive = r.srv.Alive()
	}
	if r.sampler != nil {
		if m, ok := r.sampler.Latest(); ok && m.PID == int32(pid) {
			d.Resources = &m
		}
	}
	msg := "Server is currently down."
	if running {
		msg = "Server is running with PID " + strconv.Itoa(pid) + "."
	}
	writeJSON(c, http.StatusOK, response.Succeed(d, msg))
}

func (r *Router) handleCheck(c *gin.Context) {
	err := r.upd.CheckForUpdate(c.Request.Context())
	snap := r.upd.Snapshot()
	switch {
	case errors.Is(err, updater.ErrBusy):
		writeJSON(c, http.StatusConflict, response.Fail(snap, err.Error()))
	case err != nil:
		writeJSON(c, http.StatusBadGateway, response.Fail(snap, snap.Status.String()))
	default:
		writeJSON(c, http.StatusOK, response.Succeed(snap, snap.Status.String()))
	}
}

func (r *Router) handleInstall(c *gin.Context) {
	snap := r.upd.Snapshot()
	if !snap.UpdateAvailable || snap.Complete {
		writeJSON(c, http.StatusConflict, response.Fail(snap, "No update available; run a check first."))
		return
	}
	go func() {
		if err := r.upd.DownloadAndInstall(r.bg); err != nil {
			slog.Warn("background install", "error", err)
		}
	}()
	writeJSON(c, http.StatusAccepted, response.Succeed(snap, "Update started."))
}

func (r *Router) handleUpdateStatus(c *gin.Context) {
	snap := r.upd.Snapshot()
	writeJSON(c, http.StatusOK, response.Succeed(snap, snap.Status.String()))
}

func (r *Router) handleHistory(c *gin.Context) {
	if r.hist == nil {
		writeJSON(c, http.StatusNotFound, response.Fail(nil, "history is not configured"))
		return
	}
	limit := 20
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(c, http.StatusBadRequest, response.Fail(nil, "invalid limit"))
			return
		}
		limit = n
	}
	events, err := r.hist.Recent(c.Request.Context(), limit)
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, response.Fail(nil, err.Error()))
		return
	}
	if events == nil {
		events = []history.Event{}
	}
	writeJSON(c, http.StatusOK, response.Succeed(map[string]any{"events": events}, ""))
}
