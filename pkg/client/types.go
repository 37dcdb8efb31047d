package client

import (
	"encoding/json"
	"time"
)

// Result is the envelope every control API endpoint returns.
type Result struct {
	Status  bool            `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// ServerStatus is the data of GET /server/status.
type ServerStatus struct {
	Running        bool   `json:"running"`
	PID            int    `json:"pid,omitempty"`
	Alive          bool   `json:"alive"`
	CurrentVersion string `json:"current_version"`
	AppPath        string `json:"app_path"`
	Resources      *Resources `json:"resources,omitempty"`
}

// Resources is the latest resource sample of the server.
type Resources struct {
	PID        int32     `json:"pid"`
	CPUPercent float64   `json:"cpu_percent"`
	MemoryMB   float64   `json:"memory_mb"`
	NumThreads int32     `json:"num_threads"`
	NumFDs     int32     `json:"num_fds,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// UpdateStatus is the data of the update endpoints.
type UpdateStatus struct {
	Complete        bool   `json:"complete"`
	Success         bool   `json:"success"`
	UpdateAvailable bool   `json:"update_available"`
	Error           string `json:"error,omitempty"`
	CurrentVersion  string `json:"current_version"`
}
