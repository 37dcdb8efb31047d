package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessMetrics is one resource sample of the managed server.
type ProcessMetrics struct {
	PID        int32     `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	MemoryRSS  uint64    `json:"memory_rss"`
	MemoryVMS  uint64    `json:"memory_vms"`
	NumThreads int32     `json:"num_threads"`
	NumFDs     int32     `json:"num_fds,omitempty"` // Unix only
	Timestamp  time.Time `json:"timestamp"`
}

// ProcessMetricsConfig holds configuration for server resource sampling.
type ProcessMetricsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// ProcessMetricsCollector samples CPU and memory of the server pid.
type ProcessMetricsCollector struct {
	enabled  bool
	interval time.Duration

	mu     sync.RWMutex
	latest ProcessMetrics
	have   bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	cpuPercent prometheus.Gauge
	memoryMB   prometheus.Gauge
	numThreads prometheus.Gauge
	numFDs     prometheus.Gauge
}

// NewProcessMetricsCollector creates a collector; Interval defaults to 5s.
func NewProcessMetricsCollector(config ProcessMetricsConfig) *ProcessMetricsCollector {
	interval := config.Interval
	if interval == 0 {
		interval = 5 * time.Second
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      name,
			Help:      help,
		})
	}
	return &ProcessMetricsCollector{
		enabled:    config.Enabled,
		interval:   interval,
		stopCh:     make(chan struct{}),
		cpuPercent: gauge("cpu_percent", "CPU usage percentage of the managed server."),
		memoryMB:   gauge("memory_mb", "Resident memory of the managed server in MB."),
		numThreads: gauge("num_threads", "Thread count of the managed server."),
		numFDs:     gauge("num_fds", "Open file descriptors of the managed server (Unix only)."),
	}
}

// RegisterMetrics registers the server resource gauges.
func (c *ProcessMetricsCollector) RegisterMetrics(r prometheus.Registerer) error {
	if !c.enabled {
		return nil
	}
	collectors := []prometheus.Collector{c.cpuPercent, c.memoryMB, c.numThreads}
	if runtime.GOOS != "windows" {
		collectors = append(collectors, c.numFDs)
	}
	for _, collector := range collectors {
		if err := r.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Start samples pid() every interval until ctx is done or Stop is called.
// A zero pid means no server is running and clears the last sample.
func (c *ProcessMetricsCollector) Start(ctx context.Context, pid func() int) {
	if !c.enabled {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.Collect(int32(pid()))
			}
		}
	}()
}

// Stop stops the sampling loop.
func (c *ProcessMetricsCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// Collect takes one sample of pid and publishes it.
func (c *ProcessMetricsCollector) Collect(pid int32) {
	if pid <= 0 {
		c.reset()
		return
	}
	m, err := Sample(pid)
	if err != nil {
		slog.Debug("sample server process", "pid", pid, "error", err)
		c.reset()
		return
	}
	c.cpuPercent.Set(m.CPUPercent)
	c.memoryMB.Set(m.MemoryMB)
	c.numThreads.Set(float64(m.NumThreads))
	if runtime.GOOS != "windows" {
		c.numFDs.Set(float64(m.NumFDs))
	}
	c.mu.Lock()
	c.latest, c.have = m, true
	c.mu.Unlock()
}

func (c *ProcessMetricsCollector) reset() {
	c.cpuPercent.Set(0)
	c.memoryMB.Set(0)
	c.numThreads.Set(0)
	c.numFDs.Set(0)
	c.mu.Lock()
	c.latest, c.have = ProcessMetrics{}, false
	c.mu.Unlock()
}

// Latest returns the most recent sample, if any.
func (c *ProcessMetricsCollector) Latest() (ProcessMetrics, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.have
}

func (c *ProcessMetricsCollector) IsEnabled() bool { return c.enabled }

// Sample reads resource usage of pid through gopsutil.
func Sample(pid int32) (ProcessMetrics, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return ProcessMetrics{}, fmt.Errorf("failed to create process handle: %w", err)
	}
	// first call after NewProcess may report 0
	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		cpuPercent = 0
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return ProcessMetrics{}, fmt.Errorf("failed to get memory info: %w", err)
	}
	numThreads, err := proc.NumThreads()
	if err != nil {
		numThreads = 0
	}
	m := ProcessMetrics{
		PID:        pid,
		CPUPercent: cpuPercent,
		MemoryMB:   float64(memInfo.RSS) / 1024 / 1024,
		MemoryRSS:  memInfo.RSS,
		MemoryVMS:  memInfo.VMS,
		NumThreads: numThreads,
		Timestamp:  time.Now(),
	}
	if runtime.GOOS != "windows" {
		if n, err := proc.NumFDs(); err == nil {
			m.NumFDs = n
		}
	}
	return m, nil
}
