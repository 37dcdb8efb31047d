package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/gerdoo-launcher/internal/env"
	"github.com/loykin/gerdoo-launcher/internal/installer"
	"github.com/loykin/gerdoo-launcher/internal/logger"
	"github.com/loykin/gerdoo-launcher/internal/process"
	"github.com/loykin/gerdoo-launcher/internal/updater"
)

// EnvPrefix is the prefix of environment overrides, e.g. GERDOO_MANIFEST_URL
// or GERDOO_LOG_LEVEL.
const EnvPrefix = "GERDOO"

type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type HTTPConfig struct {
	Listen   string `mapstructure:"listen"`
	BasePath string `mapstructure:"base_path"`
}

type MetricsConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type UpdateConfig struct {
	// MinVisible keeps "checking for updates" visible before the fetch.
	MinVisible time.Duration `mapstructure:"min_visible"`
}

// Config holds the launcher settings.
type Config struct {
	BaseDir     string   `mapstructure:"base_dir"`
	AppSubdir   string   `mapstructure:"app_subdir"`
	StatePath   string   `mapstructure:"state_path"`
	ManifestURL string   `mapstructure:"manifest_url"`
	RepoURL     string   `mapstructure:"repo_url"`
	Interpreter string   `mapstructure:"interpreter"`
	ServerArgs  []string `mapstructure:"server_args"`
	ServerURL   string   `mapstructure:"server_url"`
	// Env and EnvFiles add variables to the server's environment; Env wins.
	Env      []string      `mapstructure:"env"`
	EnvFiles []string      `mapstructure:"env_files"`
	Log      logger.Config `mapstructure:"log"`
	History  HistoryConfig `mapstructure:"history"`
	HTTP     HTTPConfig    `mapstructure:"http"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Update   UpdateConfig  `mapstructure:"update"`
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "gerdoo"
	}
	return filepath.Join(home, "gerdoo")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", defaultBaseDir())
	v.SetDefault("app_subdir", installer.DefaultAppDir)
	v.SetDefault("state_path", "")
	v.SetDefault("manifest_url", updater.DefaultManifestURL)
	v.SetDefault("repo_url", installer.DefaultRepoURL)
	v.SetDefault("interpreter", process.DefaultInterpreter)
	v.SetDefault("server_args", process.DefaultArgs)
	v.SetDefault("server_url", "http://127.0.0.1:8000")
	v.SetDefault("env", []string{})
	v.SetDefault("env_files", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.color", true)
	v.SetDefault("log.file.dir", "")
	v.SetDefault("log.file.stdout", "")
	v.SetDefault("log.file.stderr", "")
	v.SetDefault("log.file.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.file.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.file.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.file.compress", false)
	v.SetDefault("history.dsn", "")
	v.SetDefault("http.listen", "127.0.0.1:8787")
	v.SetDefault("http.base_path", "/api")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.interval", 5*time.Second)
	v.SetDefault("update.min_visible", updater.DefaultMinVisible)
}

// Load reads path (toml, yaml or json by extension) when non-empty, then
// applies GERDOO_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(filepath.Clean(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if c.AppSubdir == "" {
		c.AppSubdir = installer.DefaultAppDir
	}
	return &c, nil
}

// AppPath is the live application directory.
func (c *Config) AppPath() string {
	return filepath.Join(c.BaseDir, c.AppSubdir)
}

// ServerEnv merges env_files in order and then the env list; later entries
// win. ${NAME} references are expanded.
func (c *Config) ServerEnv() ([]string, error) {
	set := env.New()
	for _, p := range c.EnvFiles {
		if err := set.LoadFile(p); err != nil {
			return nil, err
		}
	}
	for _, kv := range c.Env {
		set.PutPair(kv)
	}
	return set.Pairs(), nil
}

// ProcessSpec builds the server launch spec. detached selects file output
// for one-shot CLI starts.
func (c *Config) ProcessSpec(detached bool) (process.Spec, error) {
	env, err := c.ServerEnv()
	if err != nil {
		return process.Spec{}, err
	}
	return process.Spec{
		Name:        process.DefaultName,
		Interpreter: c.Interpreter,
		Args:        c.ServerArgs,
		WorkDir:     c.AppPath(),
		Env:         env,
		Detached:    detached,
		Log:         c.Log,
	}, nil
}
