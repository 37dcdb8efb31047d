package metrics

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessMetricsCollectorDefaults(t *testing.T) {
	c := NewProcessMetricsCollector(ProcessMetricsConfig{Enabled: true})
	assert.True(t, c.IsEnabled())
	assert.Equal(t, 5*time.Second, c.interval)

	c = NewProcessMetricsCollector(ProcessMetricsConfig{Interval: time.Second})
	assert.False(t, c.IsEnabled())
	assert.Equal(t, time.Second, c.interval)
}

func TestSampleSelf(t *testing.T) {
	m, err := Sample(int32(os.Getpid()))
	require.NoError(t, err)
	assert.Equal(t, int32(os.Getpid()), m.PID)
	assert.Greater(t, m.MemoryRSS, uint64(0))
	assert.Greater(t, m.MemoryMB, 0.0)
	assert.False(t, m.Timestamp.IsZero())
}

func TestCollectPublishesAndResets(t *testing.T) {
	c := NewProcessMetricsCollector(ProcessMetricsConfig{Enabled: true})
	reg := prometheus.NewRegistry()
	require.NoError(t, c.RegisterMetrics(reg))

	c.Collect(int32(os.Getpid()))
	m, ok := c.Latest()
	require.True(t, ok)
	assert.Equal(t, int32(os.Getpid()), m.PID)
	assert.Greater(t, testutil.ToFloat64(c.memoryMB), 0.0)

	c.Collect(0)
	_, ok = c.Latest()
	assert.False(t, ok)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.memoryMB))
}

func TestRegisterMetricsDisabledIsNoop(t *testing.T) {
	c := NewProcessMetricsCollector(ProcessMetricsConfig{})
	reg := prometheus.NewRegistry()
	require.NoError(t, c.RegisterMetrics(reg))
	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, mfs)
}

func TestStartStopLoop(t *testing.T) {
	c := NewProcessMetricsCollector(ProcessMetricsConfig{Enabled: true, Interval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pid := int(os.Getpid())
	c.Start(ctx, func() int { return pid })

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := c.Latest(); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	c.Stop()
	_, ok := c.Latest()
	assert.True(t, ok, "expected at least one sample")
	// Stop is idempotent
	c.Stop()
}
