package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/loykin/gerdoo-launcher/internal/process"
	"github.com/loykin/gerdoo-launcher/internal/response"
	"github.com/loykin/gerdoo-launcher/internal/state"
)

func createInstallCommand(gf *GlobalFlags) *cobra.Command {
	installFlags := &InstallFlags{}
	userFlags := &CreateUserFlags{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the application into the base directory",
		RunE: func(c *cobra.Command, _ []string) error {
			return runInstall(c.Context(), c.OutOrStdout(), *gf, *installFlags)
		},
	}
	cmd.Flags().BoolVar(&installFlags.Force, "force", false, "reinstall even when the app directory exists")

	check := &cobra.Command{
		Use:   "check",
		Short: "Check for git, the interpreter and the app directory",
		RunE: func(c *cobra.Command, _ []string) error {
			return runInstallCheck(c.Context(), c.OutOrStdout(), *gf)
		},
	}

	createUser := &cobra.Command{
		Use:   "create-user",
		Short: "Create the application's admin user",
		Long: `Run manage.py createsuperuser --noinput in the app directory with the
DJANGO_SUPERUSER_USERNAME, DJANGO_SUPERUSER_EMAIL and DJANGO_SUPERUSER_PASSWORD
environment set from the flags.`,
		RunE: func(c *cobra.Command, _ []string) error {
			return runCreateUser(c.OutOrStdout(), *gf, *userFlags)
		},
	}
	createUser.Flags().StringVar(&userFlags.Username, "username", "", "admin username (required)")
	createUser.Flags().StringVar(&userFlags.Email, "email", "", "admin email (required)")
	createUser.Flags().StringVar(&userFlags.Password, "password", "", "admin password (required)")
	for _, f := range []string{"username", "email", "password"} {
		if err := createUser.MarkFlagRequired(f); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(check, createUser)
	return cmd
}

// InstallReport is the outcome of the prerequisite probes.
type InstallReport struct {
	Git         bool   `json:"git"`
	GitVersion  string `json:"git_version,omitempty"`
	Interpreter bool   `json:"interpreter"`
	PyVersion   string `json:"interpreter_version,omitempty"`
	App         bool   `json:"app"`
	AppPath     string `json:"app_path"`
}

func (r InstallReport) Ready() bool { return r.Git && r.Interpreter && r.App }

func (r InstallReport) missing() []string {
	var out []string
	if !r.Git {
		out = append(out, "git")
	}
	if !r.Interpreter {
		out = append(out, "interpreter")
	}
	if !r.App {
		out = append(out, "app")
	}
	return out
}

// probeInstall runs the three probes concurrently. A probe that fails only
// marks its field false.
func probeInstall(ctx context.Context, spec process.Spec, appPath string) InstallReport {
	rep := InstallReport{AppPath: appPath}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := exec.LookPath("git"); err != nil {
			return nil
		}
		out, err := exec.CommandContext(ctx, "git", "--version").Output()
		if err == nil {
			rep.Git, rep.GitVersion = true, strings.TrimSpace(string(out))
		}
		return nil
	})
	g.Go(func() error {
		tool := spec
		tool.WorkDir = ""
		out, err := tool.ToolCommand("--version").CombinedOutput()
		if err == nil {
			rep.Interpreter, rep.PyVersion = true, strings.TrimSpace(string(out))
		}
		return nil
	})
	g.Go(func() error {
		if fi, err := os.Stat(filepath.Join(appPath, "manage.py")); err == nil && !fi.IsDir() {
			rep.App = true
		}
		return nil
	})
	_ = g.Wait()
	return rep
}

func runInstallCheck(ctx context.Context, w io.Writer, gf GlobalFlags) error {
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	spec, err := l.cfg.ProcessSpec(true)
	if err != nil {
		return emitErr(w, err)
	}
	rep := probeInstall(ctxOrBackground(ctx), spec, l.sup.Record().AppPath)
	if !rep.Ready() {
		return emit(w, response.Fail(rep, "Missing: "+strings.Join(rep.missing(), ", ")))
	}
	return emit(w, response.Succeed(rep, "Everything is installed."))
}

func runInstall(ctx context.Context, w io.Writer, gf GlobalFlags, f InstallFlags) error {
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	live := l.cfg.AppPath()
	if _, err := os.Stat(live); err == nil && !f.Force {
		return emit(w, response.Succeed(map[string]any{"app_path": live}, "Application is already installed."))
	}
	if _, running := l.sup.PID(); running {
		return emit(w, response.Err("Stop the server before installing."))
	}
	if err := os.MkdirAll(l.cfg.BaseDir, 0o750); err != nil {
		return emitErr(w, fmt.Errorf("create base dir: %w", err))
	}
	if err := l.installer().Install(ctxOrBackground(ctx), l.cfg.BaseDir); err != nil {
		return emitErr(w, err)
	}
	v := state.BundledVersion(live)
	data := map[string]any{"app_path": live, "version": v}
	return emit(w, response.FromError(data, "Application installed.", l.sup.UpdateVersion(v)))
}

func runCreateUser(w io.Writer, gf GlobalFlags, f CreateUserFlags) error {
	if f.Username == "" || f.Email == "" || f.Password == "" {
		return emit(w, response.Err("username, email and password are required"))
	}
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	appPath := l.sup.Record().AppPath
	if fi, err := os.Stat(appPath); err != nil || !fi.IsDir() {
		return emit(w, response.Err("Application directory not found: "+appPath))
	}
	spec, err := l.cfg.ProcessSpec(true)
	if err != nil {
		return emitErr(w, err)
	}
	spec.WorkDir = appPath
	spec.Env = append(spec.Env,
		"DJANGO_SUPERUSER_USERNAME="+f.Username,
		"DJANGO_SUPERUSER_EMAIL="+f.Email,
		"DJANGO_SUPERUSER_PASSWORD="+f.Password,
	)
	cmd := spec.ToolCommand("manage.py", "createsuperuser", "--noinput")
	out, err := runTool(cmd)
	if err != nil {
		return emit(w, response.Fail(map[string]any{"output": out}, "create user: "+process.DescribeExit(err)))
	}
	return emit(w, response.Succeed(map[string]any{"username": f.Username}, fmt.Sprintf("User %s created.", f.Username)))
}

// runTool runs cmd and returns its trimmed combined output.
func runTool(cmd *exec.Cmd) (string, error) {
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
