package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// FileName of the persisted record inside the config directory.
const FileName = "config.json"

// ErrPathUnresolvable is returned when no per-user config directory exists.
var ErrPathUnresolvable = errors.New("cannot resolve launcher config directory")

// ParseError reports a config file that exists but is not a valid record.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DefaultPath returns the platform config file location for the
// app/Gerdoo/Launcher project.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "", ErrPathUnresolvable
	}
	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(base, "app.Gerdoo.Launcher")
	case "windows":
		dir = filepath.Join(base, "Gerdoo", "Launcher", "config")
	default:
		dir = filepath.Join(base, "launcher")
	}
	return filepath.Join(dir, FileName), nil
}

// Store reads and writes a Record at a fixed path. A Store with an empty
// path keeps nothing on disk: Load returns a default record and Save is a
// no-op.
type Store struct {
	path    string
	appPath string
	mu      sync.Mutex // serialises file writes
}

// NewStore creates a store for path. appPath seeds records created on first
// load; empty means DefaultAppPath.
func NewStore(path, appPath string) *Store {
	return &Store{path: path, appPath: appPath}
}

// Memory returns a store that never touches disk.
func Memory(appPath string) *Store { return &Store{appPath: appPath} }

func (s *Store) Path() string { return s.path }

// Load reads the record. A missing file yields a default record that is
// written out immediately. current_version is refreshed from the bundled
// manifest of the app when that manifest is readable.
func (s *Store) Load() (Record, error) {
	if s.path == "" {
		return Default(s.appPath), nil
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		rec := Default(s.appPath)
		if err := s.Save(rec); err != nil {
			return rec, err
		}
		return rec, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, &ParseError{Path: s.path, Err: err}
	}
	if rec.AppPath == "" {
		rec.AppPath = Default(s.appPath).AppPath
	}
	if v, ok := bundledVersion(rec.AppPath); ok && v != rec.CurrentVersion {
		slog.Debug("syncing version from bundled manifest", "from", rec.CurrentVersion, "to", v)
		rec.CurrentVersion = v
		if err := s.Save(rec); err != nil {
			return rec, err
		}
	}
	if rec.CurrentVersion == "" {
		rec.CurrentVersion = FallbackVersion
	}
	return rec, nil
}

// Save writes rec atomically (tmp file then rename).
func (s *Store) Save(rec Record) error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// Open resolves path (DefaultPath when empty) and returns a Store. When no
// config directory can be resolved it logs and falls back to Memory.
func Open(path, appPath string) *Store {
	if path != "" {
		return NewStore(path, appPath)
	}
	p, err := DefaultPath()
	if err != nil {
		slog.Warn("using in-memory launcher state", "error", err)
		return Memory(appPath)
	}
	return NewStore(p, appPath)
}
