package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/loykin/gerdoo-launcher/internal/installer"
	"github.com/loykin/gerdoo-launcher/internal/updater"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ManifestURL != updater.DefaultManifestURL || c.RepoURL != installer.DefaultRepoURL {
		t.Fatalf("unexpected urls: %q %q", c.ManifestURL, c.RepoURL)
	}
	if c.Interpreter != "python" || !slices.Equal(c.ServerArgs, []string{"manage.py", "runserver", "--noreload"}) {
		t.Fatalf("unexpected command: %q %v", c.Interpreter, c.ServerArgs)
	}
	if filepath.Base(c.AppPath()) != "app" || filepath.Base(c.BaseDir) != "gerdoo" {
		t.Fatalf("unexpected app path %q", c.AppPath())
	}
	if c.HTTP.BasePath != "/api" || !c.Metrics.Enabled || c.History.DSN != "" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Update.MinVisible != 500*time.Millisecond {
		t.Fatalf("min visible: %v", c.Update.MinVisible)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "launcher.toml")
	data := `
base_dir = "` + filepath.ToSlash(dir) + `"
app_subdir = "site"
interpreter = "python3"
server_args = ["manage.py", "runserver", "0.0.0.0:9000", "--noreload"]
env = ["DJANGO_DEBUG=1"]

[log]
level = "debug"
format = "json"
  [log.file]
  dir = "/var/log/gerdoo"
  max_size_mb = 5

[history]
dsn = "sqlite:///tmp/h.db"

[update]
min_visible = "0s"
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	c, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.AppPath() != filepath.Join(dir, "site") {
		t.Fatalf("app path: %q", c.AppPath())
	}
	if c.Log.Level != "debug" || c.Log.Format != "json" || c.Log.File.Dir != "/var/log/gerdoo" || c.Log.File.MaxSizeMB != 5 {
		t.Fatalf("log config: %+v", c.Log)
	}
	if c.Log.File.MaxBackups != 3 {
		t.Fatalf("unset nested key should keep default, got %d", c.Log.File.MaxBackups)
	}
	if c.History.DSN != "sqlite:///tmp/h.db" {
		t.Fatalf("history dsn: %q", c.History.DSN)
	}
	spec, err := c.ProcessSpec(true)
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	if spec.Interpreter != "python3" || spec.Args[2] != "0.0.0.0:9000" || !spec.Detached {
		t.Fatalf("unexpected spec %+v", spec)
	}
	if !slices.Equal(spec.Env, []string{"DJANGO_DEBUG=1"}) {
		t.Fatalf("env: %v", spec.Env)
	}
	if spec.Log.File.Dir != "/var/log/gerdoo" {
		t.Fatalf("spec log config not carried")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GERDOO_MANIFEST_URL", "http://localhost/m.json")
	t.Setenv("GERDOO_LOG_LEVEL", "warn")
	t.Setenv("GERDOO_HTTP_LISTEN", ":9999")
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ManifestURL != "http://localhost/m.json" || c.Log.Level != "warn" || c.HTTP.Listen != ":9999" {
		t.Fatalf("env overrides not applied: %q %q %q", c.ManifestURL, c.Log.Level, c.HTTP.Listen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestServerEnvMerge(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("A=1\n#comment\nB=two\n\nC = spaced \n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	c := &Config{EnvFiles: []string{dotenv}, Env: []string{"B=override", "D=4", "broken"}}
	got, err := c.ServerEnv()
	if err != nil {
		t.Fatalf("server env: %v", err)
	}
	want := []string{"A=1", "B=override", "C=spaced", "D=4"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}

	c.EnvFiles = []string{filepath.Join(dir, "missing.env")}
	if _, err := c.ServerEnv(); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}
