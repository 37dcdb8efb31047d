package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gerdoo_launcher"

// Result labels.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultAvailable = "available"
	ResultUpToDate  = "up_to_date"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serverStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "starts_total",
			Help:      "Number of server start attempts by result.",
		}, []string{"result"},
	)
	serverStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "stops_total",
			Help:      "Number of server stops by result.",
		}, []string{"result"},
	)
	serverRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "running",
			Help:      "1 while a server pid is recorded, 0 otherwise.",
		},
	)
	updateChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "update",
			Name:      "checks_total",
			Help:      "Number of manifest checks by result.",
		}, []string{"result"},
	)
	updateInstalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "update",
			Name:      "installs_total",
			Help:      "Number of update installs by result.",
		}, []string{"result"},
	)
	updateInstallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "update",
			Name:      "install_duration_seconds",
			Help:      "Wall time of the sparse checkout and swap.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{serverStarts, serverStops, serverRunning, updateChecks, updateInstalls, updateInstallDuration}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// allows double Register with the default registry
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Helpers below no-op until Register has succeeded.

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

func IncServerStart(ok bool) {
	if regOK.Load() {
		serverStarts.WithLabelValues(result(ok)).Inc()
	}
}

func IncServerStop(ok bool) {
	if regOK.Load() {
		serverStops.WithLabelValues(result(ok)).Inc()
	}
}

func SetServerRunning(running bool) {
	if regOK.Load() {
		v := 0.0
		if running {
			v = 1
		}
		serverRunning.Set(v)
	}
}

// IncUpdateCheck records a manifest check; res is one of ResultAvailable,
// ResultUpToDate or ResultFailure.
func IncUpdateCheck(res string) {
	if regOK.Load() {
		updateChecks.WithLabelValues(res).Inc()
	}
}

func IncUpdateInstall(ok bool) {
	if regOK.Load() {
		updateInstalls.WithLabelValues(result(ok)).Inc()
	}
}

func ObserveInstallDuration(seconds float64) {
	if regOK.Load() {
		updateInstallDuration.Observe(seconds)
	}
}
