// Package state persists the launcher's server record: the PID of the
// managed server, the installed application version and the app path.
package state

import (
	"os"
	"path/filepath"

	"github.com/loykin/gerdoo-launcher/internal/manifest"
)

// FallbackVersion is used when no bundled manifest can be read.
const FallbackVersion = "0.1.0"

// Record is the persisted launcher state.
type Record struct {
	ServerPID      *int   `json:"server_pid"`
	CurrentVersion string `json:"current_version"`
	AppPath        string `json:"app_path"`
}

// PID returns the recorded server pid, if any.
func (r Record) PID() (int, bool) {
	if r.ServerPID == nil {
		return 0, false
	}
	return *r.ServerPID, true
}

func (r *Record) SetPID(pid int) { r.ServerPID = &pid }

func (r *Record) ClearPID() { r.ServerPID = nil }

// Clone returns a copy that shares no pointers with r.
func (r Record) Clone() Record {
	out := r
	if r.ServerPID != nil {
		pid := *r.ServerPID
		out.ServerPID = &pid
	}
	return out
}

// DefaultAppPath is ~/gerdoo/app, or a relative gerdoo/app when the home
// directory is unknown.
func DefaultAppPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join("gerdoo", "app")
	}
	return filepath.Join(home, "gerdoo", "app")
}

// Default builds a fresh record for appPath. The version comes from the
// bundled manifest inside the app, or FallbackVersion.
func Default(appPath string) Record {
	if appPath == "" {
		appPath = DefaultAppPath()
	}
	return Record{
		CurrentVersion: BundledVersion(appPath),
		AppPath:        appPath,
	}
}

// BundledVersion reads <appPath>/update_manifest.json.
func BundledVersion(appPath string) string {
	if v, ok := bundledVersion(appPath); ok {
		return v
	}
	return FallbackVersion
}

func bundledVersion(appPath string) (string, bool) {
	m, err := manifest.ReadFile(filepath.Join(appPath, manifest.FileName))
	if err != nil || m.Version == "" {
		return "", false
	}
	return m.Version, true
}
