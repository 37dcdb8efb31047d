// Package installer fetches the application subtree with a git sparse
// checkout and swaps it into place.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	DefaultRepoURL = "https://github.com/mimseyedi/gerdoo.git"
	DefaultAppDir  = "app"
	// StagingDirName is created next to the live app directory.
	StagingDirName = "gerdoo_update_temp"
)

// Installer replaces <base>/<AppDir> with the AppDir subtree of RepoURL.
type Installer struct {
	RepoURL string
	AppDir  string
	Runner  Runner
	Logger  *slog.Logger

	// filesystem hooks, replaced in tests
	rename    func(oldpath, newpath string) error
	removeAll func(path string) error
}

// New returns an Installer using git on PATH.
func New(repoURL, appDir string) *Installer {
	return &Installer{RepoURL: repoURL, AppDir: appDir}
}

func (in *Installer) repo() string {
	if in.RepoURL == "" {
		return DefaultRepoURL
	}
	return in.RepoURL
}

func (in *Installer) appDir() string {
	if in.AppDir == "" {
		return DefaultAppDir
	}
	return in.AppDir
}

func (in *Installer) runner() Runner {
	if in.Runner == nil {
		return GitRunner{}
	}
	return in.Runner
}

func (in *Installer) log() *slog.Logger {
	if in.Logger == nil {
		return slog.Default()
	}
	return in.Logger
}

func (in *Installer) doRename(o, n string) error {
	if in.rename != nil {
		return in.rename(o, n)
	}
	return os.Rename(o, n)
}

func (in *Installer) doRemoveAll(p string) error {
	if in.removeAll != nil {
		return in.removeAll(p)
	}
	return os.RemoveAll(p)
}

// Install stages the sparse checkout under <baseDir>/gerdoo_update_temp and
// then swaps it into <baseDir>/<AppDir>. The live directory is untouched
// unless every git step succeeded.
func (in *Installer) Install(ctx context.Context, baseDir string) error {
	staging := filepath.Join(baseDir, StagingDirName)
	live := filepath.Join(baseDir, in.appDir())

	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	if err := in.checkout(ctx, staging); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}
	return in.swap(staging, live)
}

func (in *Installer) checkout(ctx context.Context, staging string) error {
	steps := []struct {
		step Step
		dir  string
		args []string
	}{
		{StepClone, filepath.Dir(staging), []string{"clone", "--no-checkout", in.repo(), staging}},
		{StepSparseInit, staging, []string{"sparse-checkout", "init"}},
		{StepSparseSet, staging, []string{"sparse-checkout", "set", in.appDir()}},
		{StepCheckout, staging, []string{"checkout"}},
	}
	r := in.runner()
	for _, s := range steps {
		in.log().Debug("git", "step", string(s.step), "dir", s.dir)
		code, stderr, err := r.Run(ctx, s.dir, s.args...)
		if err != nil {
			return &ExternalToolError{Step: s.step, ExitCode: -1, Stderr: string(stderr), Err: err}
		}
		if code != 0 {
			return &ExternalToolError{Step: s.step, ExitCode: code, Stderr: string(stderr)}
		}
	}
	return nil
}

func (in *Installer) swap(staging, live string) error {
	fetched := filepath.Join(staging, in.appDir())
	if _, err := os.Stat(fetched); err != nil {
		_ = os.RemoveAll(staging)
		return &SwapError{Op: "locate fetched " + in.appDir(), Err: err}
	}

	removed := false
	if _, err := os.Stat(live); err == nil {
		if err := in.doRemoveAll(live); err != nil {
			// RemoveAll may have deleted part of the tree
			_, statErr := os.Stat(live)
			return &SwapError{Op: "remove old app", LiveRemoved: errors.Is(statErr, fs.ErrNotExist), Err: err}
		}
		removed = true
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &SwapError{Op: "stat old app", Err: err}
	}

	if err := in.doRename(fetched, live); err != nil {
		in.log().Error("swap failed after removing live app", "live", live, "error", err)
		return &SwapError{Op: "move new app into place", LiveRemoved: removed, Err: err}
	}
	if err := os.RemoveAll(staging); err != nil {
		in.log().Warn("cleanup staging dir", "dir", staging, "error", err)
	}
	in.log().Info("installed application", "path", live)
	return nil
}
