package process

import (
	"time"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Status is a point-in-time view of a recorded server PID.
type Status struct {
	PID       int       `json:"pid"`
	Alive     bool      `json:"alive"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// Uptime is the time since StartedAt, or 0 when the start time is unknown.
func (s Status) Uptime(now time.Time) time.Duration {
	if !s.Alive || s.StartedAt.IsZero() || now.Before(s.StartedAt) {
		return 0
	}
	return now.Sub(s.StartedAt)
}

// Inspect probes pid and, when it is alive, its creation time.
func Inspect(pid int) Status {
	st := Status{PID: pid, Alive: Alive(pid)}
	if !st.Alive {
		return st
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return st
	}
	// milliseconds since the epoch
	if ms, err := p.CreateTime(); err == nil && ms > 0 {
		st.StartedAt = time.UnixMilli(ms)
	}
	return st
}
