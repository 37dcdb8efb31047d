package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/loykin/gerdoo-launcher/internal/process"
	"github.com/loykin/gerdoo-launcher/internal/response"
	"github.com/loykin/gerdoo-launcher/internal/supervisor"
	"github.com/loykin/gerdoo-launcher/pkg/client"
)

func createServerCommand(gf *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start, stop or inspect the application server",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start the server in the background",
			Long: `Start the application server detached from this command. Its output goes
to the log files configured under [log.file] (or is discarded).`,
			RunE: func(c *cobra.Command, _ []string) error {
				return runServerStart(c.Context(), c.OutOrStdout(), *gf)
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the recorded server process",
			RunE: func(c *cobra.Command, _ []string) error {
				return runServerStop(c.Context(), c.OutOrStdout(), *gf)
			},
		},
		&cobra.Command{
			Use:   "check-pid",
			Short: "Report the recorded pid and whether it is alive",
			RunE: func(c *cobra.Command, _ []string) error {
				return runServerCheckPID(c.OutOrStdout(), *gf)
			},
		},
	)
	return cmd
}

func runServerStart(ctx context.Context, w io.Writer, gf GlobalFlags) error {
	if gf.APIUrl != "" {
		return viaAPI(ctx, w, gf, func(ctx context.Context, c *client.Client) (client.Result, error) {
			return c.StartServer(ctx)
		})
	}
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	res, err := l.sup.Start(ctxOrBackground(ctx))
	if err != nil {
		if res.PID > 0 {
			// running, but the record was not persisted
			return emit(w, response.Fail(res, fmt.Sprintf("%s (%v)", res.Message, err)))
		}
		return emit(w, response.Fail(nil, err.Error()))
	}
	data := map[string]any{"pid": res.PID, "url": l.cfg.ServerURL}
	return emit(w, response.Succeed(data, res.Message))
}

func runServerStop(ctx context.Context, w io.Writer, gf GlobalFlags) error {
	if gf.APIUrl != "" {
		return viaAPI(ctx, w, gf, func(ctx context.Context, c *client.Client) (client.Result, error) {
			return c.StopServer(ctx)
		})
	}
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	res, err := l.sup.Stop(ctxOrBackground(ctx))
	if err != nil {
		var se *supervisor.StopError
		if errors.As(err, &se) {
			return emit(w, response.Fail(res, se.Error()))
		}
		return emit(w, response.Fail(res, err.Error()))
	}
	return emit(w, response.Succeed(res, res.Message))
}

func runServerCheckPID(w io.Writer, gf GlobalFlags) error {
	if gf.APIUrl != "" {
		return viaAPI(context.Background(), w, gf, func(ctx context.Context, c *client.Client) (client.Result, error) {
			res, _, err := c.ServerStatus(ctx)
			return res, err
		})
	}
	l, err := openLauncher(gf, cliOpen)
	if err != nil {
		return emitErr(w, err)
	}
	defer l.Close()

	pid, ok := l.sup.PID()
	if !ok {
		return emit(w, response.Succeed(map[string]any{"pid": nil, "alive": false}, "Server is currently down."))
	}
	st := process.Inspect(pid)
	msg := fmt.Sprintf("Server is running with PID %d.", pid)
	if up := st.Uptime(time.Now()); up > 0 {
		msg = fmt.Sprintf("Server is running with PID %d (up %s).", pid, up.Round(time.Second))
	}
	if !st.Alive {
		msg = fmt.Sprintf("PID %d is recorded but the process is not alive.", pid)
	}
	return emit(w, response.Succeed(st, msg))
}

func ctxOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
